package board

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tasukuchiba/message_board/internal/models"
)

func TestSubscriber_OpensOncePerIdentity(t *testing.T) {
	req := require.New(t)
	feed := &fakeFeed{}
	sub := NewSubscriber(feed, testLogger())
	u1 := models.Identity{UID: "U1", Token: "t1"}

	gen, opened := sub.Open(u1, sharedPath)
	req.True(opened)
	req.Equal(uint64(1), gen)

	again, opened := sub.Open(u1, sharedPath)
	req.False(opened)
	req.Equal(gen, again)
	req.Equal(1, feed.count())
	req.Equal("t1", feed.all()[0].token)
}

func TestSubscriber_IdentityChangeClosesPreviousFirst(t *testing.T) {
	req := require.New(t)
	feed := &fakeFeed{}
	sub := NewSubscriber(feed, testLogger())

	sub.Open(models.Identity{UID: "U1", Token: "t1"}, sharedPath)
	gen, opened := sub.Open(models.Identity{UID: "U2", Token: "t2"}, sharedPath)
	req.True(opened)
	req.Equal(uint64(2), gen)
	req.Equal(gen, sub.Current())

	subs := feed.all()
	req.Len(subs, 2)
	req.Equal(1, subs[0].unsubscribed)
	req.Equal(0, subs[1].unsubscribed)
}

func TestSubscriber_UnsubscribeIsIdempotent(t *testing.T) {
	req := require.New(t)
	feed := &fakeFeed{}
	sub := NewSubscriber(feed, testLogger())

	sub.Open(models.Identity{UID: "U1", Token: "t1"}, sharedPath)
	sub.Close()
	sub.Close()

	req.Equal(1, feed.all()[0].unsubscribed)
	req.Equal(uint64(0), sub.Current())
}

func TestSubscriber_DeliversInOrderWithGeneration(t *testing.T) {
	req := require.New(t)
	feed := &fakeFeed{}
	sub := NewSubscriber(feed, testLogger())

	gen, _ := sub.Open(models.Identity{UID: "U1", Token: "t1"}, sharedPath)
	s := feed.all()[0]
	s.onSnapshot(Snapshot{Docs: []models.Message{msg("m1", "U1", 1)}})
	s.onSnapshot(Snapshot{Docs: []models.Message{msg("m1", "U1", 1), msg("m2", "U1", 2)}})

	first := <-sub.Events()
	second := <-sub.Events()
	req.Equal(gen, first.generation)
	req.Equal("U1", first.uid)
	req.Len(first.snapshot.Docs, 1)
	req.Len(second.snapshot.Docs, 2)
}

func TestSubscriber_CallbacksAfterCloseDoNotBlock(t *testing.T) {
	req := require.New(t)
	feed := &fakeFeed{}
	sub := NewSubscriber(feed, testLogger())

	sub.Open(models.Identity{UID: "U1", Token: "t1"}, sharedPath)
	s := feed.all()[0]
	sub.Close()

	// バッファを超えて呼ばれてもブロックしない
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			s.onSnapshot(Snapshot{})
		}
	}()
	requireEventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	})
	req.LessOrEqual(len(sub.Events()), 16)
}
