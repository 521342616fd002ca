package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing ports returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingImportService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(newTestPorts())
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Ports)
		want   error
	}{
		{"all required ports", func(*Ports) {}, nil},
		{"records optional", func(p *Ports) { p.Records = nil }, nil},
		{"missing import", func(p *Ports) { p.Import = nil }, ErrMissingImportService},
		{"missing generation", func(p *Ports) { p.Generation = nil }, ErrMissingGenerationService},
		{"missing compliance", func(p *Ports) { p.Compliance = nil }, ErrMissingComplianceService},
		{"missing export", func(p *Ports) { p.Export = nil }, ErrMissingExportService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ports := newTestPorts()
			tt.mutate(ports)
			err := ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
