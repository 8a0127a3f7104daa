package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhones(t *testing.T) {
	text := "Call (512) 267-7233 or 512.267.7233, or the hotline 1-800-799-7233. Text 1-800-SAFE-NOW."
	assert.Equal(t, []string{"(512) 267-7233", "(800) 799-7233", "1-800-SAFE-NOW"}, Phones(text))
	assert.Empty(t, Phones("no numbers here, just 2024"))
}

func TestAddresses(t *testing.T) {
	text := "Visit us at 1515 Grove Street, Suite 200 or 44 Main St. Open daily."
	got := Addresses(text)
	assert.Len(t, got, 2)
	assert.Contains(t, got[0], "1515 Grove Street")
	assert.Contains(t, got[1], "44 Main St")
}

func TestOrganizationalDomain(t *testing.T) {
	assert.True(t, OrganizationalDomain("https://www.safeplace.org/help"))
	assert.True(t, OrganizationalDomain("https://www.hud.gov"))
	assert.False(t, OrganizationalDomain("https://example.com/safe.org"))
	assert.False(t, OrganizationalDomain("not a url"))
}

func TestReachable(t *testing.T) {
	assert.True(t, Reachable("call 512-555-0100", "https://example.com"))
	assert.True(t, Reachable("no phone", "https://shelter.org"))
	assert.False(t, Reachable("no phone", "https://example.com"))
}
