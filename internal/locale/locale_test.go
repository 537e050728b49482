package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableChinese(t *testing.T) {
	lookup := Table("zh", "home")

	assert.Equal(t, "知识库名称", lookup("beanName"))
	assert.Equal(t, "知识库名称至少需要8个字符", lookup("nameTooShort"))
}

func TestTableEnglish(t *testing.T) {
	lookup := Table("en", "home")

	assert.Equal(t, "Knowledge base name", lookup("beanName"))
	assert.Equal(t, "Knowledge base name must be at least 8 characters", lookup("nameTooShort"))
}

func TestTableFallbackToChinese(t *testing.T) {
	lookup := Table("fr", "home")

	assert.Equal(t, "知识库名称", lookup("beanName"))
}

func TestTableUnknownKeyReturnsKey(t *testing.T) {
	lookup := Table("zh", "home")

	assert.Equal(t, "noSuchKey", lookup("noSuchKey"))
}

func TestTableUnknownNamespace(t *testing.T) {
	lookup := Table("zh", "nowhere")

	assert.Equal(t, "anything", lookup("anything"))
}
