package runtimecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/runtimehealth/types"
	"github.com/zero-day-ai/runtimehealth/version"
)

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Policy)
		wantErr string
	}{
		{
			name:   "default policy",
			mutate: func(p *Policy) {},
		},
		{
			name: "notice band",
			mutate: func(p *Policy) {
				p.Target = version.MustParse("5.20")
				p.Stable = version.MustParse("5.10")
			},
		},
		{
			name:    "stable above target",
			mutate:  func(p *Policy) { p.Stable = version.MustParse("6.0") },
			wantErr: "stable 6.0 is above target 5.18",
		},
		{
			name:    "minimum above stable",
			mutate:  func(p *Policy) { p.MinimumSupported = version.MustParse("5.19") },
			wantErr: "minimum supported 5.19 is above stable 5.18",
		},
		{
			name:    "recommended below target",
			mutate:  func(p *Policy) { p.Recommended = version.MustParse("5.0") },
			wantErr: "recommended 5.0 is below target",
		},
		{
			name:    "missing target",
			mutate:  func(p *Policy) { p.Target = version.Version{} },
			wantErr: "target version is required",
		},
		{
			name:    "empty defective entry",
			mutate:  func(p *Policy) { p.Defective = append(p.Defective, version.Version{}) },
			wantErr: "defective version 2 is empty",
		},
		{
			name: "advisory without id",
			mutate: func(p *Policy) {
				p.Advisories = []Advisory{{When: "true", Status: types.StatusNotice}}
			},
			wantErr: "advisory id is required",
		},
		{
			name: "advisory with unknown status",
			mutate: func(p *Policy) {
				p.Advisories = []Advisory{{ID: "a", When: "true", Status: "fatal"}}
			},
			wantErr: `unknown status "fatal"`,
		},
		{
			name: "duplicate advisory",
			mutate: func(p *Policy) {
				p.Advisories = []Advisory{
					{ID: "a", When: "true", Status: types.StatusNotice},
					{ID: "a", When: "false", Status: types.StatusNotice},
				}
			},
			wantErr: `duplicate advisory "a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)

			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPolicy)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRule_RejectsInvalidPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.Stable = version.MustParse("9.0")

	_, err := NewRule(Options{Policy: &p})
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestDefaultPolicy_ReferenceValues(t *testing.T) {
	p := DefaultPolicy()

	require.Len(t, p.Defective, 2)
	assert.Equal(t, "4.4.0", p.Defective[0].String())
	assert.Equal(t, "4.4.1", p.Defective[1].String())
	assert.Equal(t, "5.18", p.Target.String())
	assert.True(t, p.Stable.Equal(p.Target))
	assert.Equal(t, "5.4", p.MinimumSupported.String())
	assert.Equal(t, "5.20", p.Recommended.String())
	assert.Empty(t, p.Advisories)
}
