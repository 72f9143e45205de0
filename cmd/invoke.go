package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/enterprise/stalwart-gateway/internal/config"
	"github.com/enterprise/stalwart-gateway/internal/gateway"
	"github.com/enterprise/stalwart-gateway/pkg/logger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newInvokeCmd() *cobra.Command {
	var (
		params []string
		method string
	)

	cmd := &cobra.Command{
		Use:   "invoke <resource>",
		Short: "Invoke one resource and print the response body",
		Long: `Invoke one gateway resource by resource name (bridges, bridge-spans, ...) or
function name (get-bridges, get-bridge-spans, ...) and print the response body.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			log := logger.New(cfg.Logging)
			set, err := gateway.FromConfig(cfg, log, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer set.Close()

			query, err := parseParams(params)
			if err != nil {
				return err
			}

			resp, err := invoke(cmd.Context(), set, args[0], gateway.Request{
				Method:    strings.ToUpper(method),
				Query:     query,
				RequestID: uuid.NewString(),
			})
			if err != nil {
				return err
			}
			if err := printResponse(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("%s returned status %d", args[0], resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "Request method")
	return cmd
}

func invoke(ctx context.Context, set *gateway.Set, name string, req gateway.Request) (gateway.Response, error) {
	resource, ok := set.Get(name)
	if !ok {
		return gateway.Response{}, fmt.Errorf("unknown resource %q", name)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return resource.Handle(ctx, req), nil
}

func parseParams(raw []string) (map[string]string, error) {
	query := make(map[string]string, len(raw))
	for _, p := range raw {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", p)
		}
		query[key] = value
	}
	return query, nil
}

func printResponse(w io.Writer, resp gateway.Response) error {
	if resp.StatusCode == http.StatusNoContent {
		_, err := fmt.Fprintf(w, "%d\n", resp.StatusCode)
		return err
	}
	_, err := fmt.Fprintln(w, resp.Body)
	return err
}
