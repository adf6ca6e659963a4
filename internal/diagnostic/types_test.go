package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "unknown", Severity(42).String())
}

func TestDiagnostic_String(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			name: "message only",
			d:    Diagnostic{Message: "no models"},
			want: "no models",
		},
		{
			name: "full",
			d: Diagnostic{
				Code:    "unknown_type",
				Message: `type "Adress" is not defined`,
				Model:   "Person",
				Path:    "attributes.address",
			},
			want: `[Person] attributes.address: [unknown_type] type "Adress" is not defined`,
		},
		{
			name: "suggestions",
			d: Diagnostic{
				Code:        "unknown_type",
				Message:     "bad type",
				Suggestions: []string{"Address", "Addresses"},
			},
			want: `[unknown_type] bad type (did you mean "Address", "Addresses"?)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.String())
		})
	}
}

func TestDiagnostics(t *testing.T) {
	var d Diagnostics

	assert.True(t, d.IsValid())
	require.NoError(t, d.Error())

	d.AddWarning("unused_model", "never referenced", "Glaze", "")
	d.AddInfo("defaults", "version defaulted to 1", "", "version")
	assert.False(t, d.HasErrors())

	d.AddError("duplicate_model", "defined twice", "Pot", "", "Pottery")
	d.AddError("unknown_policy", "bad policy", "Pot", "key_value.rules.0")

	assert.True(t, d.HasErrors())
	assert.Len(t, d.All(), 4)
	assert.Equal(t, SeverityError, d.All()[0].Severity)

	err := d.Error()
	require.Error(t, err)
	assert.Equal(t,
		`[Pot]: [duplicate_model] defined twice (did you mean "Pottery"?); `+
			`[Pot] key_value.rules.0: [unknown_policy] bad policy`,
		err.Error())

	var other Diagnostics
	other.AddError("x", "y", "", "")
	d.Merge(other)
	assert.Len(t, d.Errors, 3)
}
