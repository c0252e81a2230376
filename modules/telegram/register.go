package telegram

import "github.com/flemzord/tgflow/internal/core"

func init() {
	core.RegisterCredential(Credential{})
	core.RegisterNode(Trigger{})
	core.RegisterNode(Action{})
}
