package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/surveysync/internal/appcontext"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewCommand(&appcontext.Mock{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "surveysync version dev")
	assert.Contains(t, out.String(), "built by: test")
	assert.Contains(t, out.String(), "go version:")
}
