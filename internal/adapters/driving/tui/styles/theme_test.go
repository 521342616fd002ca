package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestStyles_StatusLabel(t *testing.T) {
	s := DefaultStyles()
	assert.Contains(t, s.StatusLabel(domain.FindingPass), "PASS")
	assert.Contains(t, s.StatusLabel(domain.FindingFail), "FAIL")
	assert.Contains(t, s.StatusLabel(domain.FindingNotApplicable), "N/A")
}

func TestStyles_Status(t *testing.T) {
	s := DefaultStyles()
	assert.Equal(t, s.Success.GetForeground(), s.Status(domain.FindingPass).GetForeground())
	assert.Equal(t, s.Error.GetForeground(), s.Status(domain.FindingFail).GetForeground())
	assert.Equal(t, s.Warning.GetForeground(), s.Status(domain.FindingNotApplicable).GetForeground())
}
