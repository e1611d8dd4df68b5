package content

import (
	"strconv"

	"github.com/DoyleJ11/scene-quest/internal/engine"
)

var defaultRecapRows = []int{4, 3, 3, 4}

// RecapCard is one tile of the recap grid.
type RecapCard struct {
	Key   string            `json:"key"`
	Label string            `json:"label"`
	Title string            `json:"title"`
	Item  engine.ReplayItem `json:"item"`
}

// RecapItems lists the replayable scenes: intro, each question in order,
// then the proposal.
func (c *Content) RecapItems() []RecapCard {
	cards := make([]RecapCard, 0, len(c.Questions)+2)
	cards = append(cards, RecapCard{
		Key:   "intro",
		Label: "Intro",
		Title: c.Intro.Title,
		Item:  engine.ReplayItem{Kind: engine.ReplayIntro},
	})
	for _, q := range c.Questions {
		cards = append(cards, RecapCard{
			Key:   questionKey(q.ID),
			Label: questionLabel(q.ID),
			Title: q.Text,
			Item:  engine.ReplayItem{Kind: engine.ReplayQuestion, QuestionID: q.ID},
		})
	}
	cards = append(cards, RecapCard{
		Key:   "proposal",
		Label: "Finale",
		Title: c.Proposal.Message,
		Item:  engine.ReplayItem{Kind: engine.ReplayProposal},
	})
	return cards
}

// RecapRows slices RecapItems into rows of the configured sizes. Cards
// beyond the layout go into a final row so none are dropped.
func (c *Content) RecapRows() [][]RecapCard {
	items := c.RecapItems()
	layout := c.Recap.Rows
	if len(layout) == 0 {
		layout = defaultRecapRows
	}

	rows := [][]RecapCard{}
	cursor := 0
	for _, n := range layout {
		if cursor >= len(items) {
			break
		}
		end := min(cursor+n, len(items))
		rows = append(rows, items[cursor:end])
		cursor = end
	}
	if cursor < len(items) {
		rows = append(rows, items[cursor:])
	}
	return rows
}

func questionKey(id int) string   { return "q-" + strconv.Itoa(id) }
func questionLabel(id int) string { return "Q" + strconv.Itoa(id) }
