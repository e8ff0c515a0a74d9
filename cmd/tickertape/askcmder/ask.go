package askcmder

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/tickertape/pkg/a2a"
)

const askLongDesc string = `Send one message to a running tickertape server and print the reply.

Pass --conversation to continue an earlier conversation; otherwise a new
conversation id is generated and printed to stderr.

Examples:
  tickertape ask "What's the stock price of Apple?"
  tickertape ask --conversation 1234 "And Microsoft?"
  tickertape ask --server http://localhost:5000 "Hello"`

const askShortDesc string = "Ask the assistant a question"

type askCommander struct {
	serverURL      string
	conversationID string
	timeout        time.Duration
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask [text...]",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVar(&cmder.serverURL, "server", "http://localhost:5000", "Base URL of the tickertape server")
	cmd.Flags().StringVar(&cmder.conversationID, "conversation", "", "Conversation id to continue")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 5*time.Minute, "How long to wait for the reply")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	conversationID := c.conversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
		fmt.Fprintf(cmd.ErrOrStderr(), "conversation: %s\n", conversationID)
	}

	client := a2a.NewClient(strings.TrimRight(c.serverURL, "/")+"/a2a", &http.Client{Timeout: c.timeout})
	reply, err := client.Send(ctx, a2a.NewTextMessage(conversationID, strings.Join(args, " ")))
	if err != nil {
		return fmt.Errorf("could not reach %s: %w", c.serverURL, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply.Text())
	return nil
}
