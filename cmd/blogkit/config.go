package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eringen/blogkit"
)

func newConfigCmd() *cobra.Command {
	var showSecrets bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print every configuration key with its resolved value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := getEnv(cmd)
			if f := e.v.ConfigFileUsed(); f != "" {
				cmd.Printf("# config file: %s\n", f)
			}
			for _, o := range blogkit.ConfigOptions() {
				val := e.v.Get(o.Key)
				if isSecret(o.Key) && !showSecrets && fmt.Sprint(val) != "" {
					val = "********"
				}
				cmd.Printf("# %s\n%s: %s\n", o.Comment, o.Key, inline(val))
			}
			if err := e.cfg.Validate(); err != nil {
				cmd.Printf("\n# problems:\n# %s\n", strings.ReplaceAll(err.Error(), "\n", "\n# "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print passwords and keys in clear text")
	return cmd
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, "password") || strings.HasSuffix(key, "secret") ||
		strings.HasSuffix(key, "secret_key") || strings.HasSuffix(key, "access_key")
}

// inline renders a value in YAML flow style so lists stay on one line.
func inline(v any) string {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	setFlow(&node)
	b, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(string(b))
}

func setFlow(n *yaml.Node) {
	if n.Kind == yaml.SequenceNode || n.Kind == yaml.MappingNode {
		n.Style |= yaml.FlowStyle
	}
	for _, c := range n.Content {
		setFlow(c)
	}
}
