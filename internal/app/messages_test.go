package app

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"chatbase/pkg/domain"
)

func seedConversation(t *testing.T, a *App) (domain.User, domain.Conversation) {
	t.Helper()
	user, err := a.CreateUser("ada", "ada@example.com", "s3cret", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	conv, err := a.CreateConversation(user.ID, "notes", nil)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return user, conv
}

func TestPostMessageValidation(t *testing.T) {
	a, _ := newTestApp(t)
	user, conv := seedConversation(t, a)

	if _, err := a.PostMessage(PostMessageParams{
		ConversationID: conv.ID, AuthorID: &user.ID, Role: "narrator", Content: "x",
	}); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected invalid role, got: %v", err)
	}
	if _, err := a.PostMessage(PostMessageParams{
		ConversationID: conv.ID, AuthorID: &user.ID, Role: domain.RoleMessageUser, Content: "  ",
	}); !errors.Is(err, ErrContentRequired) {
		t.Fatalf("expected content required, got: %v", err)
	}
	if _, err := a.PostMessage(PostMessageParams{
		ConversationID: "ghost", AuthorID: &user.ID, Role: domain.RoleMessageUser, Content: "x",
	}); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected conversation not found, got: %v", err)
	}

	// Function-role messages carry their payload in FunctionCall.
	msg, err := a.PostMessage(PostMessageParams{
		ConversationID: conv.ID,
		Role:           domain.RoleMessageFunction,
		Name:           "lookup",
		FunctionCall:   map[string]any{"arguments": `{"q":"ada"}`},
	})
	if err != nil {
		t.Fatalf("post function message: %v", err)
	}
	if msg.Name != "lookup" {
		t.Fatalf("function name not kept: %q", msg.Name)
	}
}

func TestConversationMessageFlow(t *testing.T) {
	a, _ := newTestApp(t)
	user, conv := seedConversation(t, a)

	question, err := a.PostMessage(PostMessageParams{
		ConversationID: conv.ID, AuthorID: &user.ID,
		Role: domain.RoleMessageUser, Content: "what is a store?",
	})
	if err != nil {
		t.Fatalf("post question: %v", err)
	}
	answer, err := a.PostMessage(PostMessageParams{
		ConversationID: conv.ID,
		Role:           domain.RoleMessageAssistant,
		Content:        "a persistence boundary",
		ParentID:       &question.ID,
	})
	if err != nil {
		t.Fatalf("post answer: %v", err)
	}

	msgs, err := a.ListMessages(conv.ID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != question.ID || msgs[1].ID != answer.ID {
		t.Fatalf("messages out of order: %+v", msgs)
	}

	got, err := a.GetConversation(conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.LastMessageAt == nil || !got.LastMessageAt.Equal(answer.CreatedAt) {
		t.Fatalf("last_message_at should track the newest message: %v", got.LastMessageAt)
	}

	// Deleting the question detaches the answer instead of deleting it.
	if err := a.DeleteMessage(question.ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	kept, err := a.GetMessage(answer.ID)
	if err != nil {
		t.Fatalf("answer must survive: %v", err)
	}
	if kept.ParentMessageID != nil {
		t.Fatalf("answer should be detached, parent=%v", *kept.ParentMessageID)
	}
}

func TestThreadWalk(t *testing.T) {
	a, _ := newTestApp(t)
	user, conv := seedConversation(t, a)

	var chain []domain.Message
	var parent *string
	for i := 0; i < 3; i++ {
		msg, err := a.PostMessage(PostMessageParams{
			ConversationID: conv.ID, AuthorID: &user.ID,
			Role: domain.RoleMessageUser, Content: fmt.Sprintf("msg %d", i),
			ParentID: parent,
		})
		if err != nil {
			t.Fatalf("post message %d: %v", i, err)
		}
		chain = append(chain, msg)
		parent = &chain[i].ID
	}
	leaf := chain[2]

	thread, err := a.Thread(leaf.ID, 0)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread) != 3 {
		t.Fatalf("expected full chain, got %d", len(thread))
	}
	for i := range thread {
		if thread[i].ID != chain[i].ID {
			t.Fatalf("thread not root-first at %d: got %q want %q", i, thread[i].ID, chain[i].ID)
		}
	}

	// A depth bound truncates from the root side.
	thread, err = a.Thread(leaf.ID, 2)
	if err != nil {
		t.Fatalf("bounded thread: %v", err)
	}
	if len(thread) != 2 || thread[0].ID != chain[1].ID || thread[1].ID != leaf.ID {
		t.Fatalf("unexpected bounded thread: %+v", thread)
	}

	// A hidden parent ends the walk rather than failing it.
	if err := a.SoftDeleteMessage(chain[0].ID); err != nil {
		t.Fatalf("soft delete root: %v", err)
	}
	thread, err = a.Thread(leaf.ID, 0)
	if err != nil {
		t.Fatalf("thread after root removal: %v", err)
	}
	if len(thread) != 2 || thread[0].ID != chain[1].ID {
		t.Fatalf("walk should stop at the hidden root: %+v", thread)
	}
}

func TestConcurrentMessagePosting(t *testing.T) {
	a, _ := newTestApp(t)
	user, conv := seedConversation(t, a)

	const workers = 25
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			_, err := a.PostMessage(PostMessageParams{
				ConversationID: conv.ID, AuthorID: &user.ID,
				Role: domain.RoleMessageUser, Content: fmt.Sprintf("concurrent %d", i),
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent posting: %v", err)
	}

	msgs, err := a.ListMessages(conv.ID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != workers {
		t.Fatalf("expected %d messages, got %d", workers, len(msgs))
	}
	got, err := a.GetConversation(conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.LastMessageAt == nil {
		t.Fatalf("last_message_at should be set after posting")
	}
}
