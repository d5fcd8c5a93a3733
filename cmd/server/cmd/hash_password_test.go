package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordCommand(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
	}{
		{name: "flag", args: []string{"hash-password", "--password", "correct-horse"}},
		{name: "stdin", args: []string{"hash-password"}, stdin: "correct-horse\n"},
		{name: "stdin without newline", args: []string{"hash-password"}, stdin: "correct-horse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCommand()
			out := new(bytes.Buffer)
			root.SetOut(out)
			root.SetErr(new(bytes.Buffer))
			root.SetIn(strings.NewReader(tt.stdin))
			root.SetArgs(tt.args)

			require.NoError(t, root.Execute())
			hash := strings.TrimSpace(out.String())
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct-horse")))
		})
	}
}

func TestHashPasswordCommand_Rejects(t *testing.T) {
	for _, stdin := range []string{"", "short\n"} {
		root := newRootCommand()
		root.SetOut(new(bytes.Buffer))
		root.SetErr(new(bytes.Buffer))
		root.SetIn(strings.NewReader(stdin))
		root.SetArgs([]string{"hash-password"})

		err := root.Execute()
		assert.Error(t, err, "stdin %q", stdin)
	}
}
