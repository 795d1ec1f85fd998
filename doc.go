// Package boardkit is an embeddable discussion-board engine: forums,
// topics and replies stored as generic content items inside a host
// application, with denormalized counters, sticky lists, dynamic
// roles, subscriptions and email notifications.
//
// # Quick Start
//
// Create a Board with New(), wire it to your storage, and use the
// services it exposes:
//
//	board, err := boardkit.New(
//	    boardkit.WithLogger(logger),
//	    boardkit.WithPostgres(pool),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	forum, _ := board.Forums.Create(ctx, forum.New{Title: "General"})
//	topic, _ := board.Topics.Create(ctx, topic.New{
//	    Title: "Hello", ForumID: forum.ID, AuthorID: userID,
//	})
//	board.Replies.Create(ctx, reply.New{
//	    Content: "First!", TopicID: topic.ID, AuthorID: userID,
//	})
//
// With no storage options the Board runs entirely in memory, which is
// what the test suites use.
//
// # Host integration
//
// The engine deliberately owns no user accounts, sessions or themes.
// The host supplies user identity through a Viewpoint on the context,
// email addresses through subscribe.Directory, and authentication for
// the HTTP action endpoints through action.CurrentUser. Role
// assignments ride on the host's own role list and never disturb
// roles the host put there.
package boardkit
