package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, ID("src/app.vue"), ID("src/app.vue"))
	})

	t.Run("path sensitive", func(t *testing.T) {
		assert.NotEqual(t, ID("src/app.vue"), ID("src/other.vue"))
	})

	t.Run("format", func(t *testing.T) {
		id := ID("src/app.vue")
		assert.Len(t, id, len("data-v-")+idLength)
		assert.Regexp(t, `^data-v-[0-9a-f]{8}$`, id)
	})
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("one"))
	b := ContentHash([]byte("two"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, ContentHash([]byte("one")))
	assert.Len(t, a, idLength)
}

func TestComponentName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"nav-bar.vue", "NavBar"},
		{"src/widgets/data_table.vue", "DataTable"},
		{"button.vue", "Button"},
		{"my component.vue", "MyComponent"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ComponentName(tt.path))
		})
	}
}
