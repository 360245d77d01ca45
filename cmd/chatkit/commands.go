package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/go-chatkit/internal/chatkit"
	"github.com/jsamuelsen/go-chatkit/internal/platform/logging"
	"github.com/jsamuelsen/go-chatkit/internal/ports"
)

// errUnhealthy is returned by ping when a probe fails.
var errUnhealthy = errors.New("one or more services are unhealthy")

// parseQuery turns k=v arguments into an ordered query.
func parseQuery(pairs []string) (chatkit.Query, error) {
	q := make(chatkit.Query, 0, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("query parameter %q: want key=value", pair)
		}
		q = q.Add(k, v)
	}

	return q, nil
}

func (c *cli) urlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url <service> <endpoint> [key=value...]",
		Short: "Print the URL a request would be sent to",
		Long: "Print the URL a request would be sent to. Nothing is dispatched.\n" +
			"The endpoint is appended verbatim, so include its leading '/'.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuery(args[2:])
			if err != nil {
				return err
			}

			u, err := c.client.BuildEndpoint(args[0], args[1], q)
			if err != nil {
				return err
			}

			return printJSON(cmd, map[string]string{"url": u})
		},
	}
}

func (c *cli) tokenCommand() *cobra.Command {
	var (
		userID string
		su     bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token with the configured API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := c.tokens()
			if err != nil {
				return err
			}

			tok, err := tokens.Generate(userID, su)
			if err != nil {
				return err
			}

			return printJSON(cmd, tok)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "subject user ID")
	cmd.Flags().BoolVar(&su, "su", false, "grant superuser rights")

	return cmd
}

func (c *cli) rawCommand() *cobra.Command {
	var (
		query  []string
		body   string
		userID string
		su     bool
	)

	cmd := &cobra.Command{
		Use:   "raw <method> <service> <endpoint>",
		Short: "Dispatch one request and print the classified response",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuery(query)
			if err != nil {
				return err
			}

			tokens, err := c.tokens()
			if err != nil {
				return err
			}

			tok, err := tokens.Generate(userID, su)
			if err != nil {
				return err
			}

			opts := []chatkit.RequestOption{chatkit.WithToken(tok.AccessToken)}
			if body != "" {
				if !json.Valid([]byte(body)) {
					return errors.New("--body is not valid JSON")
				}
				opts = append(opts, chatkit.WithBody(json.RawMessage(body)))
			}

			ctx := cmd.Context()
			resp, err := c.client.Do(ctx, strings.ToUpper(args[0]), args[1], args[2], q, opts...)
			if err != nil {
				return err
			}

			logging.FromContext(ctx).Debug("raw response", slog.Int("status", resp.StatusCode))

			payload, err := chatkit.ClassifyResponse(resp)
			if err != nil {
				return err
			}

			return printJSON(cmd, payload)
		},
	}

	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter key=value; may be repeated")
	cmd.Flags().StringVar(&body, "body", "", "JSON request body")
	cmd.Flags().StringVar(&userID, "user", "", "sign the request as this user")
	cmd.Flags().BoolVar(&su, "su", true, "sign with superuser rights")

	return cmd
}

func (c *cli) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Probe every platform service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			registry := ports.NewHealthRegistry(c.cfg.Client.Timeout)
			if err := ck.RegisterProbes(registry); err != nil {
				return err
			}

			result := registry.CheckAll(cmd.Context())
			if err := printJSON(cmd, result); err != nil {
				return err
			}

			if result.Status != ports.HealthStatusHealthy {
				return errUnhealthy
			}

			return nil
		},
	}
}
