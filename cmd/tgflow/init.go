package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/modules/telegram"
	"github.com/flemzord/tgflow/pkg/app"
)

const tokenEnv = "TELEGRAM_BOT_TOKEN"

var botTokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]{30,}$`)

// initAnswers holds what the init form collects.
type initAnswers struct {
	Token    string
	BaseURL  string
	Updates  []string
	Download bool
	Echo     bool
	Store    string
}

// initConfig is the subset of config.Config written by init.
type initConfig struct {
	Version     string                             `yaml:"version"`
	BaseURL     string                             `yaml:"base_url"`
	Gateway     initGateway                        `yaml:"gateway"`
	Store       config.StoreConfig                 `yaml:"store"`
	Credentials map[string]config.CredentialConfig `yaml:"credentials"`
	Workflows   []config.WorkflowConfig            `yaml:"workflows"`
}

type initGateway struct {
	Bind string `yaml:"bind"`
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = app.DefaultConfigPath()
			}
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s already exists", out)
			}

			a := initAnswers{Updates: []string{string(telegram.UpdateMessage)}, Store: "sqlite"}
			if err := initForm(&a).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			if err := writeInit(out, a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s\nRun: tgflow start -c %s\n",
				out, filepath.Join(filepath.Dir(out), ".env"), out)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Where to write the configuration")
	return cmd
}

func initForm(a *initAnswers) *huh.Form {
	updates := make([]huh.Option[string], 0, len(telegram.UpdateOptions()))
	for _, o := range telegram.UpdateOptions() {
		updates = append(updates, huh.NewOption(o.Name, o.Value))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bot token").
				Description("From @BotFather. Stored in .env, not in the config file.").
				EchoMode(huh.EchoModePassword).
				Validate(validateToken).
				Value(&a.Token),
			huh.NewInput().
				Title("Public base URL").
				Description("Where Telegram can reach this host, e.g. https://flows.example.com").
				Validate(validateBaseURL).
				Value(&a.BaseURL),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Trigger on").
				Options(updates...).
				Value(&a.Updates),
			huh.NewConfirm().
				Title("Download attached images and files?").
				Value(&a.Download),
			huh.NewConfirm().
				Title("Add a node that echoes text messages back?").
				Value(&a.Echo),
			huh.NewSelect[string]().
				Title("Execution history").
				Options(
					huh.NewOption("SQLite file", "sqlite"),
					huh.NewOption("In memory", "memory"),
				).
				Value(&a.Store),
		),
	)
}

func validateToken(s string) error {
	if !botTokenPattern.MatchString(s) {
		return errors.New("expected <bot id>:<secret>")
	}
	return nil
}

func validateBaseURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return errors.New("expected an absolute http(s) URL")
	}
	return nil
}

// writeInit writes the configuration and the .env file holding the token.
func writeInit(path string, a initAnswers) error {
	raw, err := renderConfig(a)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	envPath := filepath.Join(dir, ".env")
	env := map[string]string{}
	if existing, err := godotenv.Read(envPath); err == nil {
		env = existing
	}
	env[tokenEnv] = a.Token
	if err := godotenv.Write(env, envPath); err != nil {
		return fmt.Errorf("write %s: %w", envPath, err)
	}
	return os.Chmod(envPath, 0o600)
}

func renderConfig(a initAnswers) ([]byte, error) {
	trigger := config.NodeConfig{
		Type:        telegram.TriggerName,
		Credentials: map[string]string{telegram.CredentialName: "bot"},
		Parameters:  map[string]yaml.Node{},
	}
	if err := setParam(trigger.Parameters, "updates", a.Updates); err != nil {
		return nil, err
	}
	if a.Download {
		if err := setParam(trigger.Parameters, "additionalFields", map[string]any{"download": true}); err != nil {
			return nil, err
		}
	}

	wf := config.WorkflowConfig{ID: "telegram", Name: "Telegram", Trigger: trigger}
	if a.Echo {
		echo := config.NodeConfig{
			Name:        "echo",
			Type:        telegram.ActionName,
			Credentials: map[string]string{telegram.CredentialName: "bot"},
			Parameters:  map[string]yaml.Node{},
		}
		params := map[string]string{
			"resource":  "message",
			"operation": "sendMessage",
			"chatId":    "{{ $json.message.chat.id }}",
			"text":      "{{ $json.message.text }}",
		}
		for k, v := range params {
			if err := setParam(echo.Parameters, k, v); err != nil {
				return nil, err
			}
		}
		wf.Nodes = []config.NodeConfig{echo}
	}

	store := config.StoreConfig{Driver: a.Store}
	if a.Store == config.DefaultStoreDriver {
		store.Path = config.DefaultStorePath
		store.Retain = 1000
	}

	doc := initConfig{
		Version: "1",
		BaseURL: a.BaseURL,
		Gateway: initGateway{Bind: config.DefaultBind},
		Store:   store,
		Credentials: map[string]config.CredentialConfig{
			"bot": {
				Type: telegram.CredentialName,
				Data: map[string]string{"accessToken": "${" + tokenEnv + "}"},
			},
		},
		Workflows: []config.WorkflowConfig{wf},
	}
	return yaml.Marshal(doc)
}

func setParam(params map[string]yaml.Node, name string, v any) error {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return fmt.Errorf("encode parameter %s: %w", name, err)
	}
	params[name] = n
	return nil
}
