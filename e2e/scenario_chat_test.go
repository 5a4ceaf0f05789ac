package e2e

import (
	"chat-guard/domain"
	"chat-guard/errors"
	"chat-guard/services"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type testChatSuite struct {
	BaseSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

func hasText(text string) func(domain.Snapshot) bool {
	return func(s domain.Snapshot) bool {
		return lo.ContainsBy(s.Messages, func(m domain.Message) bool { return m.Text == text })
	}
}

func (s *testChatSuite) TestBroadcastAcrossClients() {
	ctx := context.Background()
	first := s.NewClient("first window")
	second := s.NewClient("second window")
	dimple := s.Login(first, "user1", "user123")

	var sent domain.Message
	s.Step("Step 1: a send from one client reaches both", func() {
		var err error
		sent, err = first.Messages.Send(ctx, dimple, "  hello everyone  ")
		s.Require().NoError(err)
		s.Require().Equal("hello everyone", sent.Text)

		for _, c := range []*Client{first, second} {
			snapshot := s.AwaitSnapshot(c, hasText("hello everyone"), "snapshot with the new message")
			s.Require().Len(snapshot.Messages, 1)
			s.Require().Equal(sent.ID, snapshot.Messages[0].ID)
		}
	})

	s.Step("Step 2: versions only grow", func() {
		for _, c := range []*Client{first, second} {
			all := c.Seen.All()
			for i := 1; i < len(all); i++ {
				s.Require().GreaterOrEqual(all[i].Version, all[i-1].Version)
			}
		}
	})

	s.Step("Step 3: an edit made elsewhere is seen", func() {
		other := s.Login(second, "user1", "user123")
		_, err := second.Messages.Edit(ctx, other, sent.ID, "hello world")
		s.Require().NoError(err)

		snapshot := s.AwaitSnapshot(first, hasText("hello world"), "edited message")
		s.Require().True(snapshot.Messages[0].Edited())
	})
}

func (s *testChatSuite) TestRateLimitWindow() {
	ctx := context.Background()
	c := s.NewClient("spammer")
	paul := s.Login(c, "user2", "user123")

	s.Step("Step 1: the send after the threshold is refused", func() {
		for i := 0; i < s.Config.SpamThreshold; i++ {
			_, err := c.Messages.Send(ctx, paul, fmt.Sprintf("message %d", i))
			s.Require().NoError(err)
		}
		_, err := c.Messages.Send(ctx, paul, "one too many")
		s.Require().Equal(services.Result{Kind: errors.KindRateLimited, Error: errors.ErrRateLimited.Error()}, services.NewResult(err))

		stat := c.Messages.SpamStats()[paul.ID]
		s.Require().Equal(s.Config.SpamThreshold, stat.RecentMessageCount)
		s.Require().True(stat.IsNearLimit)
	})

	s.Step("Step 2: admins are never limited", func() {
		admin := s.Login(c, "admin", "admin123")
		for i := 0; i < s.Config.SpamThreshold*2; i++ {
			_, err := c.Messages.Send(ctx, admin, fmt.Sprintf("announcement %d", i))
			s.Require().NoError(err)
		}
	})

	s.Step("Step 3: sending works again once the window expired", func() {
		time.Sleep(s.Config.SpamWindow)
		_, err := c.Messages.Send(ctx, paul, "back again")
		s.Require().NoError(err)
		s.AwaitSnapshot(c, hasText("back again"), "message sent after the window")
	})
}

func (s *testChatSuite) TestBlockAcrossClients() {
	ctx := context.Background()
	adminClient := s.NewClient("admin window")
	userClient := s.NewClient("user window")
	admin := s.Login(adminClient, "admin", "admin123")
	ayan := s.Login(userClient, "user3", "user123")

	s.Step("Step 1: the block list reaches the other client", func() {
		s.Require().NoError(adminClient.Messages.SetBlocked(ctx, admin, ayan.ID, true))
		s.AwaitSnapshot(userClient, func(snapshot domain.Snapshot) bool {
			return snapshot.IsBlocked(ayan.ID)
		}, "snapshot carrying the block")

		_, err := userClient.Messages.Send(ctx, ayan, "hi")
		s.Require().Equal(errors.KindBlocked, services.NewResult(err).Kind)
	})

	s.Step("Step 2: unblocking re-enables sending", func() {
		s.Require().NoError(adminClient.Messages.SetBlocked(ctx, admin, ayan.ID, false))
		s.AwaitSnapshot(userClient, func(snapshot domain.Snapshot) bool {
			return !snapshot.IsBlocked(ayan.ID)
		}, "snapshot without the block")

		_, err := userClient.Messages.Send(ctx, ayan, "hi")
		s.Require().True(services.NewResult(err).Success)
		s.AwaitSnapshot(adminClient, hasText("hi"), "message from the unblocked user")
	})
}

func (s *testChatSuite) TestModerationByAdmin() {
	ctx := context.Background()
	c := s.NewClient("moderation")
	admin := s.Login(c, "admin", "admin123")
	dimple := s.Login(c, "user1", "user123")
	paul := s.Login(c, "user2", "user123")

	mine, err := c.Messages.Send(ctx, dimple, "you idiot")
	s.Require().NoError(err)
	s.Require().Equal("you *****", mine.Text)
	_, err = c.Messages.Send(ctx, paul, "second")
	s.Require().NoError(err)

	s.Step("Step 1: ownership is enforced for everyone", func() {
		s.Require().ErrorIs(c.Messages.DeleteOwn(ctx, paul, mine.ID), errors.ErrUnauthorized)
		_, err := c.Messages.Edit(ctx, admin, mine.ID, "rewritten")
		s.Require().ErrorIs(err, errors.ErrUnauthorized)
		s.Require().ErrorIs(c.Messages.DeleteAll(ctx, paul), errors.ErrUnauthorized)
	})

	s.Step("Step 2: the admin removes one message then all", func() {
		s.Require().NoError(c.Messages.DeleteAny(ctx, admin, mine.ID))
		s.AwaitSnapshot(c, func(snapshot domain.Snapshot) bool {
			return len(snapshot.Messages) == 1 && snapshot.Messages[0].Text == "second"
		}, "one message left")

		s.Require().NoError(c.Messages.DeleteAll(ctx, admin))
		s.AwaitSnapshot(c, func(snapshot domain.Snapshot) bool { return len(snapshot.Messages) == 0 }, "empty chat")
	})
}
