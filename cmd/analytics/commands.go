package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	analytics "github.com/relaytics/analytics-go"
	"github.com/relaytics/analytics-go/integration"
	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/metrics"
)

// parseObject parses a JSON object flag. An empty string is a null value.
func parseObject(flagName, raw string) (ldvalue.Value, error) {
	if raw == "" {
		return ldvalue.Null(), nil
	}
	value := ldvalue.Parse([]byte(raw))
	if value.Type() != ldvalue.ObjectType {
		return ldvalue.Null(), fmt.Errorf("--%s must be a JSON object", flagName)
	}
	return value, nil
}

type eventOptions struct {
	userID      string
	anonymousID string
	properties  string
}

func (e *eventOptions) addFlags(cmd *cobra.Command, propertiesName string) {
	cmd.Flags().StringVar(&e.userID, "user-id", "", "identify as this user before sending")
	cmd.Flags().StringVar(&e.anonymousID, "anonymous-id", "", "anonymous ID to send instead of a random one")
	cmd.Flags().StringVar(&e.properties, propertiesName, "", "JSON object of "+propertiesName)
}

// run applies the identity flags, calls send, and delivers what it queued.
func (e *eventOptions) run(
	cmd *cobra.Command,
	opts *rootOptions,
	propertiesName string,
	send func(*analytics.Client, ldvalue.Value) error,
) error {
	properties, err := parseObject(propertiesName, e.properties)
	if err != nil {
		return err
	}
	return opts.withClient(func(client *analytics.Client) error {
		client.SetAnonymousID(e.anonymousID)
		if e.userID != "" {
			if err := client.Identify(e.userID, ldvalue.Null(), nil); err != nil {
				return err
			}
		}
		if err := send(client, properties); err != nil {
			return err
		}
		return deliver(cmd.OutOrStdout(), client, opts)
	})
}

func deliver(out io.Writer, client *analytics.Client, opts *rootOptions) error {
	if !client.FlushAndWait(opts.v.GetDuration(keyTimeout)) {
		return fmt.Errorf("delivery did not finish within %s", opts.v.GetDuration(keyTimeout))
	}
	stats := client.Stats()
	if stats.QueueSize > 0 {
		_, _ = fmt.Fprintf(out, "delivered %d payloads; %d remain queued\n", stats.FlushedPayloads, stats.QueueSize)
		return nil
	}
	_, _ = fmt.Fprintf(out, "delivered %d payloads\n", stats.FlushedPayloads)
	return nil
}

func newTrackCommand(opts *rootOptions) *cobra.Command {
	e := &eventOptions{}
	cmd := &cobra.Command{
		Use:   "track EVENT",
		Short: "Record an event and deliver it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, opts, "properties", func(client *analytics.Client, properties ldvalue.Value) error {
				return client.Track(args[0], properties, nil)
			})
		},
	}
	e.addFlags(cmd, "properties")
	return cmd
}

func newIdentifyCommand(opts *rootOptions) *cobra.Command {
	e := &eventOptions{}
	cmd := &cobra.Command{
		Use:   "identify USER_ID",
		Short: "Associate a user ID and traits, and deliver the identify call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, opts, "traits", func(client *analytics.Client, traits ldvalue.Value) error {
				return client.Identify(args[0], traits, nil)
			})
		},
	}
	e.addFlags(cmd, "traits")
	return cmd
}

func newScreenCommand(opts *rootOptions) *cobra.Command {
	e := &eventOptions{}
	var category string
	cmd := &cobra.Command{
		Use:   "screen NAME",
		Short: "Record a screen view and deliver it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, opts, "properties", func(client *analytics.Client, properties ldvalue.Value) error {
				return client.Screen(category, args[0], properties, nil)
			})
		},
	}
	e.addFlags(cmd, "properties")
	cmd.Flags().StringVar(&category, "category", "", "screen category")
	return cmd
}

func newFlushCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Deliver payloads left in the queue by earlier runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withClient(func(client *analytics.Client) error {
				return deliver(cmd.OutOrStdout(), client, opts)
			})
		},
	}
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the queue size and the state of each delivery target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withClient(func(client *analytics.Client) error {
				out := cmd.OutOrStdout()
				switch opts.v.GetString(keyFormat) {
				case "json":
					_, err := fmt.Fprintln(out, statsAsJSON(client.Stats(), client.Targets()).JSONString())
					return err
				case "prometheus":
					return writePrometheus(out, client)
				default:
					writeStatsText(out, client.Stats(), client.Targets())
					return nil
				}
			})
		},
	}
}

func statsAsJSON(stats interfaces.StatsSnapshot, targets []integration.Status) ldvalue.Value {
	targetsArray := ldvalue.ArrayBuild()
	for _, t := range targets {
		targetsArray.Add(ldvalue.ObjectBuild().
			SetString("key", t.Key).
			SetString("state", t.State.String()).
			Build())
	}
	return ldvalue.ObjectBuild().
		Set("queueSize", ldvalue.Int(stats.QueueSize)).
		Set("queuedPayloads", ldvalue.Float64(float64(stats.QueuedPayloads))).
		Set("droppedPayloads", ldvalue.Float64(float64(stats.DroppedPayloads))).
		Set("flushCount", ldvalue.Float64(float64(stats.FlushCount))).
		Set("flushedPayloads", ldvalue.Float64(float64(stats.FlushedPayloads))).
		Set("failedFlushCount", ldvalue.Float64(float64(stats.FailedFlushCount))).
		Set("targets", targetsArray.Build()).
		Build()
}

func writeStatsText(out io.Writer, stats interfaces.StatsSnapshot, targets []integration.Status) {
	_, _ = fmt.Fprintf(out, "queue size:        %d\n", stats.QueueSize)
	_, _ = fmt.Fprintf(out, "queued payloads:   %d\n", stats.QueuedPayloads)
	_, _ = fmt.Fprintf(out, "dropped payloads:  %d\n", stats.DroppedPayloads)
	_, _ = fmt.Fprintf(out, "flushes:           %d (%d failed)\n", stats.FlushCount, stats.FailedFlushCount)
	_, _ = fmt.Fprintln(out, "targets:")
	for _, t := range targets {
		_, _ = fmt.Fprintf(out, "  %-20s %s\n", t.Key, t.State)
	}
}

func writePrometheus(out io.Writer, client *analytics.Client) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(metrics.NewCollector(client.Stats)); err != nil {
		return err
	}
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
