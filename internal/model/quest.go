package model

type QuestType string

const (
	QuestIOSApp          QuestType = "carv_ios_app"
	QuestAndroidApp      QuestType = "carv_android_app"
	QuestRetweet         QuestType = "retweet_tweet"
	QuestLikeTweet       QuestType = "like_tweet"
	QuestFollowOnTwitter QuestType = "follow_on_twitter"
	QuestVisitPage       QuestType = "visit_page"
	QuestTelegramJoin    QuestType = "telegram_join_group"
)

// AutoCompletable reports whether the quest needs no human action.
// Anything else (verification codes and so on) is skipped.
func (t QuestType) AutoCompletable() bool {
	switch t {
	case QuestIOSApp, QuestAndroidApp, QuestRetweet, QuestLikeTweet,
		QuestFollowOnTwitter, QuestVisitPage, QuestTelegramJoin:
		return true
	default:
		return false
	}
}

type Quest struct {
	ID         int64     `json:"quest_id"`
	Name       string    `json:"quest_name,omitempty"`
	Type       QuestType `json:"quest_type"`
	IsAchieved bool      `json:"is_achieved"`
	IsClaimed  bool      `json:"is_claimed"`
}

func (q Quest) Pending() bool {
	return !q.IsAchieved && !q.IsClaimed
}

// QuestList is the get_quest_list payload. IsClaimed doubles as the
// "quest lottery claim available" flag.
type QuestList struct {
	Quests    []Quest `json:"quest_list"`
	IsClaimed bool    `json:"is_claimed"`
}
