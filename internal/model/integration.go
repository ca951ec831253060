package model

const (
	IntegrationTypeSlack   = "slack"
	IntegrationTypeTrello  = "trello"
	IntegrationTypeWebhook = "webhook"
)

// Integration is an outbound notification target configured by an
// administrator. Config fields are sparse: which ones matter depends on Type.
type Integration struct {
	Base
	Type    string            `db:"type" json:"type"`
	Name    string            `db:"name" json:"name"`
	Enabled bool              `db:"enabled" json:"enabled"`
	Config  IntegrationConfig `db:"-" json:"config"`
}

type IntegrationConfig struct {
	URL             string `json:"url,omitempty"`
	TrelloBoardID   string `json:"trello_board_id,omitempty"`
	TrelloListID    string `json:"trello_list_id,omitempty"`
	MessageTemplate string `json:"message_template,omitempty"`
}
