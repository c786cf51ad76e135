package entity

type Player struct {
	ID     string `json:"id"`
	Role   string `json:"role,omitempty"`
	GameID string `json:"game_id,omitempty"`
}

func (that *Player) IsBot() bool {
	return that.ID == BotID
}

const BotID = "bot"
