package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vargava/xr-emcee-demo/cmd/emcee/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage contexts and the emcee service configuration.

A context is a named directory holding an emcee.yaml config file with
credentials and startup defaults. Switch contexts to move the bot
between venues without retyping keys.

Examples:
  emcee config list-contexts
  emcee config add-context booth
  emcee config use-context booth
  emcee config current-context
  emcee config set booth openai_api_key sk-xxx
  emcee config get booth personality
  emcee config edit booth`,
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"ls"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		names, err := cfg.ListContexts()
		if err != nil {
			return err
		}

		if len(names) == 0 {
			fmt.Println("No contexts configured.")
			fmt.Println("Create one with: emcee config add-context <name>")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tSERVICES")

		for _, name := range names {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}

			services, _ := config.ListServices(cfg.ContextDir(name))
			svcList := ""
			for i, s := range services {
				if i > 0 {
					svcList += ", "
				}
				svcList += s
			}

			fmt.Fprintf(w, "%s\t%s\t%s\n", current, name, svcList)
		}
		w.Flush()
		return nil
	},
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Create a new context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := args[0]

		if err := cfg.AddContext(name); err != nil {
			return err
		}
		fmt.Printf("Context %q created.\n", name)
		fmt.Printf("Configure it with: emcee config set %s <key> <value>\n", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context and its service config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := args[0]

		if err := cfg.DeleteContext(name); err != nil {
			return err
		}
		fmt.Printf("Context %q deleted.\n", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := args[0]

		if err := cfg.UseContext(name); err != nil {
			return err
		}
		fmt.Printf("Switched to context %q.\n", name)
		return nil
	},
}

var configCurrentContextCmd = &cobra.Command{
	Use:   "current-context",
	Short: "Display the current context name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			fmt.Println("No current context set.")
			return nil
		}
		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <context> <key> <value>",
	Short: "Set a config value",
	Long: `Set a key-value pair in a context's emcee.yaml config file.

Examples:
  emcee config set booth openai_api_key sk-xxxx
  emcee config set booth backend openai
  emcee config set booth personality pirate
  emcee config set booth actuator daemon
  emcee config set booth daemon_addr 192.168.1.42:9090`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctxName, key, value := args[0], args[1], args[2]
		if err := config.ValidateContextName(ctxName); err != nil {
			return err
		}

		contextDir := cfg.ContextDir(ctxName)
		if _, err := os.Stat(contextDir); os.IsNotExist(err) {
			return fmt.Errorf("context %q not found", ctxName)
		}

		// Load existing config, or start fresh if the file doesn't exist.
		servicePath := cfg.ServicePath(ctxName, config.ServiceName)
		var m map[string]any
		if _, statErr := os.Stat(servicePath); os.IsNotExist(statErr) {
			m = map[string]any{key: value}
		} else {
			existing, loadErr := config.LoadService[map[string]any](contextDir, config.ServiceName)
			if loadErr != nil {
				return fmt.Errorf("cannot read existing config: %w", loadErr)
			}
			// Handle empty YAML files (unmarshal produces nil map).
			if *existing == nil {
				m = map[string]any{key: value}
			} else {
				m = *existing
				m[key] = value
			}
		}

		if err := config.SaveService(contextDir, config.ServiceName, &m); err != nil {
			return err
		}

		fmt.Printf("Set %s = %s (context: %s)\n", key, value, ctxName)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <context> <key>",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctxName, key := args[0], args[1]
		if err := config.ValidateContextName(ctxName); err != nil {
			return err
		}

		contextDir := cfg.ContextDir(ctxName)
		m, err := config.LoadService[map[string]any](contextDir, config.ServiceName)
		if err != nil {
			return err
		}

		if *m == nil {
			return fmt.Errorf("key %q not found in config (file is empty)", key)
		}

		val, ok := (*m)[key]
		if !ok {
			return fmt.Errorf("key %q not found in config", key)
		}

		fmt.Println(val)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit <context>",
	Short: "Open a context's config in the default editor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctxName := args[0]
		if err := config.ValidateContextName(ctxName); err != nil {
			return err
		}

		dir := cfg.ContextDir(ctxName)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("context %q not found", ctxName)
		}

		// Create the file if it doesn't exist.
		path := filepath.Join(dir, config.ServiceName+".yaml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte("# emcee configuration\n"), 0600); err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		c := exec.Command(editor, path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	},
}

func init() {
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configCurrentContextCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configEditCmd)

	rootCmd.AddCommand(configCmd)
}
