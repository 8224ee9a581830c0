// Package client contains Cobra CLI commands for Tempo.
package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewLineCommand constructs the `line` command group and subcommands.
func NewLineCommand(baseURL BaseURLFunc) *cobra.Command {
	lineCmd := &cobra.Command{Use: "line", Short: "Delay line operations"}

	lineCmd.AddCommand(
		newLineCreateCommand(baseURL),
		newLinePublishCommand(baseURL),
		newLineSubscribeCommand(baseURL),
		newLineCloseCommand(baseURL),
		newLineFaultCommand(baseURL),
		newLineStatsCommand(baseURL),
		newLineListCommand(baseURL),
	)

	return lineCmd
}

// newLineCreateCommand constructs the `line create` subcommand.
func newLineCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a delay line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			name, _ := cmd.Flags().GetString("name")
			delayMs, _ := cmd.Flags().GetInt64("delay-ms")
			if err := postJSON(baseURL()+"/v1/lines/create", map[string]any{
				"namespace": ns, "line": name, "delay_ms": delayMs,
			}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	createCmd.Flags().StringP("namespace", "n", "default", "Namespace")
	createCmd.Flags().String("name", "", "Line name")
	createCmd.Flags().Int64("delay-ms", 0, "Fixed delay in ms (0 = namespace default)")
	return createCmd
}

// newLinePublishCommand constructs the `line publish` subcommand.
func newLinePublishCommand(baseURL BaseURLFunc) *cobra.Command {
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish an event onto a line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			line, _ := cmd.Flags().GetString("line")
			data, _ := cmd.Flags().GetString("data")
			headerPairs, _ := cmd.Flags().GetStringArray("header")
			headerJSON, _ := cmd.Flags().GetString("header-json")

			headers, err := parseHeaderFlags(headerPairs, headerJSON)
			if err != nil {
				return err
			}
			var out struct {
				ID    string `json:"id"`
				DueMs int64  `json:"due_ms"`
			}
			if err := postJSONDecode(baseURL()+"/v1/lines/publish", map[string]any{
				"namespace": ns, "line": line, "payload": []byte(data), "headers": headers,
			}, &out); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(out)
		},
	}
	publishCmd.Flags().StringP("namespace", "n", "default", "Namespace")
	publishCmd.Flags().String("line", "", "Line name")
	publishCmd.Flags().String("data", "", "Payload data")
	publishCmd.Flags().StringArray("header", nil, "Header key=value (repeatable)")
	publishCmd.Flags().String("header-json", "", "Headers as a JSON object")
	return publishCmd
}

// newLineSubscribeCommand constructs the `line subscribe` subcommand.
func newLineSubscribeCommand(baseURL BaseURLFunc) *cobra.Command {
	subscribeCmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Stream released events from a line (SSE)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			line, _ := cmd.Flags().GetString("line")
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")

			q := url.Values{}
			q.Set("namespace", ns)
			q.Set("line", line)
			if filter != "" {
				q.Set("filter", filter)
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet,
				baseURL()+"/v1/lines/subscribe?"+q.Encode(), nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode >= 300 {
				return fmt.Errorf("http error: %s", resp.Status)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			rd := bufio.NewReader(resp.Body)
			seen := 0
			event := ""
			for {
				raw, err := rd.ReadString('\n')
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				sline := strings.TrimRight(raw, "\n")
				switch {
				case strings.HasPrefix(sline, "event: "):
					event = strings.TrimPrefix(sline, "event: ")
				case strings.HasPrefix(sline, "data: "):
					data := strings.TrimPrefix(sline, "data: ")
					switch event {
					case "complete":
						return nil
					case "error":
						var e struct {
							Error string `json:"error"`
						}
						_ = json.Unmarshal([]byte(data), &e)
						return errors.New(e.Error)
					default:
						var ev struct {
							ID      string `json:"id"`
							Payload []byte `json:"payload"`
						}
						if json.Unmarshal([]byte(data), &ev) == nil {
							_ = enc.Encode(decodedEvent(ev.ID, ev.Payload))
							seen++
							if limit > 0 && seen >= limit {
								return nil
							}
						}
					}
				case sline == "":
					event = ""
				}
			}
		},
	}
	subscribeCmd.Flags().StringP("namespace", "n", "default", "Namespace")
	subscribeCmd.Flags().String("line", "", "Line name")
	subscribeCmd.Flags().String("filter", "", "CEL filter (server-side)")
	subscribeCmd.Flags().Int("limit", 0, "Stop after N events (0 = until the line terminates)")
	return subscribeCmd
}

// newLineCloseCommand constructs the `line close` subcommand.
func newLineCloseCommand(baseURL BaseURLFunc) *cobra.Command {
	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Complete a line after its parked events drain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			line, _ := cmd.Flags().GetString("line")
			if err := postJSON(baseURL()+"/v1/lines/close", map[string]any{"namespace": ns, "line": line}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	closeCmd.Flags().StringP("namespace", "n", "default", "Namespace")
	closeCmd.Flags().String("line", "", "Line name")
	return closeCmd
}

// newLineFaultCommand constructs the `line fault` subcommand.
func newLineFaultCommand(baseURL BaseURLFunc) *cobra.Command {
	faultCmd := &cobra.Command{
		Use:   "fault",
		Short: "Fail a line, dropping parked events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			line, _ := cmd.Flags().GetString("line")
			reason, _ := cmd.Flags().GetString("reason")
			if err := postJSON(baseURL()+"/v1/lines/fault", map[string]any{
				"namespace": ns, "line": line, "reason": reason,
			}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	faultCmd.Flags().StringP("namespace", "n", "default", "Namespace")
	faultCmd.Flags().String("line", "", "Line name")
	faultCmd.Flags().String("reason", "line faulted", "Reason forwarded to subscribers")
	return faultCmd
}

// newLineStatsCommand constructs the `line stats` subcommand.
func newLineStatsCommand(baseURL BaseURLFunc) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Get line stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			line, _ := cmd.Flags().GetString("line")
			q := url.Values{}
			q.Set("namespace", ns)
			q.Set("line", line)
			resp, err := http.Get(baseURL() + "/v1/lines/stats?" + q.Encode())
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode >= 300 {
				return fmt.Errorf("http error: %s", resp.Status)
			}
			var st map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		},
	}
	statsCmd.Flags().StringP("namespace", "n", "default", "Namespace")
	statsCmd.Flags().String("line", "", "Line name")
	return statsCmd
}

// newLineListCommand constructs the `line list` subcommand.
func newLineListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a namespace's lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			resp, err := http.Get(baseURL() + "/v1/lines/list?namespace=" + url.QueryEscape(ns))
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode >= 300 {
				return fmt.Errorf("http error: %s", resp.Status)
			}
			var out map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	listCmd.Flags().StringP("namespace", "n", "default", "Namespace")
	return listCmd
}
