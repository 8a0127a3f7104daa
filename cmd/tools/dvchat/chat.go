package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/service/assistant"
)

// runChat reads one utterance per line until EOF, /quit or a goodbye.
func runChat(ctx context.Context, engine *assistant.Engine, in io.Reader, out io.Writer, opts *options) error {
	channel := conversation.ParseChannel(opts.channel)
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "session %s on %s channel. Type /quit to exit.\n", opts.sessionKey, channel)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			engine.ClearContext(ctx, opts.sessionKey)
			fmt.Fprintln(out, "context cleared")
			continue
		case "/context":
			sess, ok := engine.GetContext(ctx, opts.sessionKey)
			if !ok {
				fmt.Fprintln(out, "no context")
				continue
			}
			if err := printJSON(out, sess); err != nil {
				return err
			}
			continue
		}

		reply, err := engine.HandleUtterance(ctx, assistant.Request{
			SessionKey: opts.sessionKey,
			Utterance:  line,
			Channel:    channel,
			Language:   opts.language,
		})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if opts.jsonOutput {
			if err := printJSON(out, reply); err != nil {
				return err
			}
		} else {
			tag := reply.Source
			if reply.FollowUp {
				tag = string(reply.FollowUpType)
			}
			fmt.Fprintf(out, "[%s/%s] %s\n", reply.Intent, tag, reply.Text)
		}
		if reply.Ended {
			return nil
		}
	}
}
