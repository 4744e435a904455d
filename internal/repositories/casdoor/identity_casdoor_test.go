package casdoor

import (
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/assert"
)

func TestConvertClaims(t *testing.T) {
	claims := &casdoorsdk.Claims{
		User: casdoorsdk.User{
			Id:          "c0ffee",
			Email:       "Jane.Doe@Example.com",
			DisplayName: "Jane Doe",
			Roles:       []*casdoorsdk.Role{{Name: "Administrator"}},
		},
	}

	identity := convertClaims(claims)

	assert.Equal(t, "c0ffee", identity.Subject)
	assert.Equal(t, "Jane.Doe", identity.Username)
	assert.Equal(t, "jane.doe@example.com", identity.Email)
	assert.Equal(t, "Jane", identity.FirstName)
	assert.Equal(t, "Doe", identity.LastName)
	assert.True(t, identity.IsAdmin)
}

func TestConvertClaims_PlainUser(t *testing.T) {
	claims := &casdoorsdk.Claims{
		User: casdoorsdk.User{Id: "1", Name: "bob", Email: "bob@example.com", FirstName: "Bob"},
	}

	identity := convertClaims(claims)

	assert.Equal(t, "bob", identity.Username)
	assert.Equal(t, "Bob", identity.FirstName)
	assert.False(t, identity.IsAdmin)
}
