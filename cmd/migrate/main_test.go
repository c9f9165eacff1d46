package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	err := run(nil)
	assert.ErrorContains(t, err, "no database URL")
}

func TestRun_RejectsUnknownCommand(t *testing.T) {
	err := run([]string{"-db", "postgresql://localhost/momo", "sideways"})
	assert.ErrorContains(t, err, `unknown command "sideways"`)
}
