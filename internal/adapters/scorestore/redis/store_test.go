package redis

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
)

const ns = "test:item:hot"

func TestStore(t *testing.T) {
	Convey("Given a store backed by an in-process redis", t, func() {
		mr := miniredis.RunT(t)
		store := New(WithAddr(mr.Addr()))
		defer store.Close()
		ctx := context.Background()

		So(store.Name(), ShouldEqual, "redis")
		So(store.Ping(ctx), ShouldBeNil)

		Convey("When members are incremented", func() {
			for _, m := range []string{"3", "3", "3", "1", "1", "2", "9"} {
				So(store.Increment(ctx, ns, m), ShouldBeNil)
			}

			Convey("Then the sorted set holds the counts", func() {
				score, err := mr.ZScore(ns, "3")
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 3.0)
			})

			Convey("Then TopK returns the highest scores first", func() {
				top, err := store.TopK(ctx, ns, 2)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].Member, ShouldEqual, "3")
				So(top[0].Score, ShouldEqual, 3.0)
				So(top[1].Member, ShouldEqual, "1")
				So(top[1].Score, ShouldEqual, 2.0)
			})

			Convey("Then Rank and Cardinality reflect the set", func() {
				rank, score, ok, err := store.Rank(ctx, ns, "1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(rank, ShouldEqual, 1)
				So(score, ShouldEqual, 2.0)

				_, _, ok, err = store.Rank(ctx, ns, "404")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)

				n, err := store.Cardinality(ctx, ns)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, int64(4))
			})

			Convey("Then Reset empties the namespace", func() {
				So(store.Reset(ctx, ns), ShouldBeNil)
				top, err := store.TopK(ctx, ns, 10)
				So(err, ShouldBeNil)
				So(top, ShouldBeEmpty)
			})
		})

		Convey("When the set holds fractional scores", func() {
			_, err := mr.ZAdd(ns, 2.5, "5")
			So(err, ShouldBeNil)

			Convey("Then the raw score is returned unrounded", func() {
				top, err := store.TopK(ctx, ns, 1)
				So(err, ShouldBeNil)
				So(top[0].Score, ShouldEqual, 2.5)
			})
		})

		Convey("When k is not positive", func() {
			top, err := store.TopK(ctx, ns, 0)

			Convey("Then nothing is queried and the result is empty", func() {
				So(err, ShouldBeNil)
				So(top, ShouldNotBeNil)
				So(top, ShouldBeEmpty)
			})
		})

		Convey("When the namespace is not a sorted set", func() {
			So(mr.Set(ns, "oops"), ShouldBeNil)

			Convey("Then commands fail with a wrapped error", func() {
				err := store.Increment(ctx, ns, "1")
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "zincrby "+ns)

				_, err = store.TopK(ctx, ns, 1)
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the server goes away", func() {
			mr.Close()

			Convey("Then every call reports an error instead of hanging", func() {
				callCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				So(store.Increment(callCtx, ns, "1"), ShouldNotBeNil)
				_, err := store.TopK(callCtx, ns, 5)
				So(err, ShouldNotBeNil)
				So(store.Ping(callCtx), ShouldNotBeNil)
			})
		})
	})
}

func TestNewWithClient(t *testing.T) {
	Convey("Given an existing client", t, func() {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		store := New(WithClient(client), WithAddr("ignored:1"), WithDB(2), WithPassword(""),
			WithDialTimeout(time.Second), WithReadTimeout(time.Second), WithWriteTimeout(time.Second))

		Convey("Then the store uses it and closes it", func() {
			So(store.Increment(context.Background(), ns, "1"), ShouldBeNil)
			So(store.Close(), ShouldBeNil)
			So(errors.Is(client.Ping(context.Background()).Err(), goredis.ErrClosed), ShouldBeTrue)
		})
	})
}

// silentServer accepts connections and never writes a reply.
func silentServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func TestStoreHonorsContextDeadline(t *testing.T) {
	Convey("Given a server that accepts but never replies", t, func() {
		store := New(WithAddr(silentServer(t)), WithReadTimeout(10*time.Second), WithWriteTimeout(10*time.Second))
		defer store.Close()

		Convey("When Increment runs under a short deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			start := time.Now()
			err := store.Increment(ctx, ns, "1")

			Convey("Then it fails at the deadline, not the read timeout", func() {
				So(err, ShouldNotBeNil)
				So(time.Since(start), ShouldBeLessThan, time.Second)
			})
		})

		Convey("When TopK runs under a short deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			start := time.Now()
			_, err := store.TopK(ctx, ns, 10)

			Convey("Then it fails at the deadline, not the read timeout", func() {
				So(err, ShouldNotBeNil)
				So(time.Since(start), ShouldBeLessThan, time.Second)
			})
		})
	})
}
