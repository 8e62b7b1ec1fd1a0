package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/keylessvault/internal/client/models"
	"github.com/dmitrijs2005/keylessvault/internal/client/session"
)

// promptApprover asks on the terminal before anything is signed.
type promptApprover struct {
	reader *bufio.Reader
	out    io.Writer
}

func (p *promptApprover) Approve(_ context.Context, address string, payload models.EntryFunctionPayload) (bool, error) {
	fmt.Fprintf(p.out, "Sign transaction from %s\n", address)
	fmt.Fprintf(p.out, "  function:  %s\n", payload.Function)
	if len(payload.TypeArguments) > 0 {
		fmt.Fprintf(p.out, "  type args: %s\n", strings.Join(payload.TypeArguments, ", "))
	}
	if len(payload.Arguments) > 0 {
		fmt.Fprintf(p.out, "  arguments: %v\n", payload.Arguments)
	}
	return Confirm(p.reader, "Approve?", p.out)
}

// printNavigator shows the identity-provider URL for the user to open.
type printNavigator struct {
	out io.Writer
}

func (n *printNavigator) Navigate(_ context.Context, nav *session.Navigation) error {
	_, err := fmt.Fprintf(n.out, "Open this URL in your browser to sign in:\n\n  %s\n\n", nav.URL)
	return err
}
