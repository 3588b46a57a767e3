package store

import "github.com/zentrais/zentrais-api/internal/models"

// DemoUsers are the pre-provisioned identities the demo deployment runs with.
var DemoUsers = []models.User{
	{ID: "u-amara", Name: "Amara Osei", Avatar: "/avatars/amara.png"},
	{ID: "u-jonas", Name: "Jonas Keller", Avatar: "/avatars/jonas.png"},
	{ID: "u-mei", Name: "Mei Tanaka"},
	{ID: "u-rafael", Name: "Rafael Costa"},
}

// Seed loads a handful of starter topics, posts and votes through the normal
// store operations, so seeded data obeys the same invariants as user data.
func Seed(s Store) error {
	type seedTopic struct {
		title, description string
		author             models.User
		tags               []string
		posts              []models.Post
		votes              map[string]models.Choice
	}

	seeds := []seedTopic{
		{
			title:       "Should cities ban private cars from their centers?",
			description: "Car-free zones are spreading across Europe. Is this the future of urban life or an overreach?",
			author:      DemoUsers[0],
			tags:        []string{"urbanism", "environment"},
			posts: []models.Post{
				{Content: "Air quality improved measurably everywhere this was tried.", Author: DemoUsers[1], Position: models.PositionSupport},
				{Content: "Tradespeople and delivery services depend on street access.", Author: DemoUsers[2], Position: models.PositionCounter},
			},
			votes: map[string]models.Choice{
				DemoUsers[1].ID: models.ChoiceSupport,
				DemoUsers[2].ID: models.ChoiceCounter,
				DemoUsers[3].ID: models.ChoiceSupport,
			},
		},
		{
			title:       "Is a four-day work week realistic for most industries?",
			description: "Trials report equal output and happier teams, but critics doubt it scales past knowledge work.",
			author:      DemoUsers[3],
			tags:        []string{"work", "society"},
			posts: []models.Post{
				{Content: "Every large trial so far kept productivity flat or better.", Author: DemoUsers[0], Position: models.PositionSupport},
			},
			votes: map[string]models.Choice{
				DemoUsers[0].ID: models.ChoiceSupport,
			},
		},
	}

	for i := len(seeds) - 1; i >= 0; i-- {
		sd := seeds[i]
		topic, err := s.CreateTopic(sd.title, sd.description, sd.author, sd.tags)
		if err != nil {
			return err
		}
		for _, p := range sd.posts {
			if _, err := s.CreatePost(topic.ID, p.Content, p.Author, p.Position); err != nil {
				return err
			}
		}
		for voter, choice := range sd.votes {
			if _, err := s.CastVote(models.SubjectTopic, topic.ID, voter, choice); err != nil {
				return err
			}
		}
	}
	return nil
}
