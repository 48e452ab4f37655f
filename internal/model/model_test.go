package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Amount
		wantErr bool
	}{
		{name: "number", input: `12.5`, want: 12.5},
		{name: "string", input: `"3.75"`, want: 3.75},
		{name: "padded string", input: `" 4 "`, want: 4},
		{name: "empty string", input: `""`, want: 0},
		{name: "null", input: `null`, want: 0},
		{name: "garbage", input: `"abc"`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			err := json.Unmarshal([]byte(tt.input), &a)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "25.50", Amount(25.5).String())
	assert.Equal(t, "0.00", Amount(0).String())
}

func TestUserProfile_UnknownRole(t *testing.T) {
	var u UserProfile
	err := json.Unmarshal([]byte(`{"id":1,"nombre":"X","rol":"superuser","saldo":"2"}`), &u)
	require.NoError(t, err)

	assert.Equal(t, Role(""), u.Rol)
	assert.Equal(t, Amount(2), u.Saldo)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" admin_comedor ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdminComedor, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestMenuItem_SoldOut(t *testing.T) {
	assert.True(t, MenuItem{CantidadDisponible: 0}.SoldOut())
	assert.False(t, MenuItem{CantidadDisponible: 1}.SoldOut())
}
