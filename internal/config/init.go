package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
)

var exampleComments = map[string]string{
	"site":                 "Site whose pages are migrated. Its scheme is used for every document URL.",
	"target_host":          "Optional backend address every connection is routed to (host or host:port).",
	"forwarded_host":       "X-Forwarded-Host sent with each request; defaults to the URL hostname.",
	"access_token":         "Token for document writes. LAYOUTSWAP_ACCESS_TOKEN overrides it.",
	"concurrency":          "Maximum in-flight fetches, and separately maximum in-flight commits.",
	"timeout":              "Per-request timeout (Go duration). Empty means no timeout.",
	"tolerate_statuses":    "Statuses on a published copy that mean \"not published\".",
	"requests_per_second":  "Optional client-side rate limit across all requests.",
	"mapping":              "Layout references to replace, mapped to their replacements (no @version).",
	"mode":                 "migrate commits changes; report only lists matching URLs.",
	"journal":              "SQLite run journal; omit path to disable.",
	"notify":               "Publish every record to NATS; omit nats_url to disable.",
	"metrics":              "Write Prometheus metrics to a node-exporter textfile after each run.",
	"environments":         "Named connection variants, selected with --env.",
	"insecure_skip_verify": "Skip TLS verification, e.g. when target_host is a bare IP.",
}

// Init writes an example configuration file to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	skip := true
	example := Config{
		Site:             "https://www.example.com",
		AccessToken:      "${CMS_ACCESS_TOKEN}",
		Concurrency:      DefaultConcurrency,
		Timeout:          "30s",
		TolerateStatuses: []int{404},
		Mapping: map[string]string{
			"www.example.com/_components/layout/instances/old-shell": "www.example.com/_components/layout/instances/new-shell",
		},
		Mode:    DefaultMode,
		Journal: JournalConfig{Path: "layoutswap.db"},
		Environments: map[string]Environment{
			"local": {TargetHost: "localhost:3001", ForwardedHost: "www.example.com"},
			"prod":  {TargetHost: "10.0.0.5", ForwardedHost: "www.example.com", InsecureSkipVerify: &skip},
		},
	}

	var node yaml.Node
	if err := node.Encode(&example); err != nil {
		return errors.InternalError("failed to encode example configuration").WithCause(err).Build()
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if comment, ok := exampleComments[node.Content[i].Value]; ok {
			node.Content[i].HeadComment = comment
		}
	}

	data, err := yaml.Marshal(&node)
	if err != nil {
		return errors.InternalError("failed to marshal example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.ConfigError("failed to write configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
