package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/ranking/internal/app"
	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/internal/domain/types"
)

func newSQLiteService(t *testing.T) *service.Service {
	t.Helper()
	svc := service.New(
		service.WithDatabase("sqlite", "file:"+uuid.NewString()+"?mode=memory"),
		service.WithDefaultPageSize(3),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service over an empty sqlite database", t, func() {
		svc := newSQLiteService(t)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When a record is registered, fetched and deleted", func() {
			stored, err := svc.Register(ctx, model.ScoreRecord{Player: "p1", Score: 100, Time: ts(11)})
			So(err, ShouldBeNil)

			got, err := svc.Get(ctx, stored.ID)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, stored)

			So(svc.Delete(ctx, stored.ID), ShouldBeNil)
			_, err = svc.Get(ctx, stored.ID)

			Convey("Then the final lookup should be NotFound", func() {
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
				So(model.KindOf(err), ShouldEqual, model.KindNotFound)
			})
		})

		Convey("When seven records are registered for two spellings of a player", func() {
			for i := range 7 {
				player := "Alice"
				if i%2 == 1 {
					player = "alice"
				}
				_, err := svc.Register(ctx, model.ScoreRecord{Player: player, Score: 10 * (i + 1), Time: ts(1 + i)})
				So(err, ShouldBeNil)
			}

			Convey("Then searches should be case-insensitive and paginated", func() {
				a, err := svc.ByPlayers(ctx, []string{"Alice"}, model.PageRequest{})
				So(err, ShouldBeNil)
				b, err := svc.ByPlayers(ctx, []string{"aLICE"}, model.PageRequest{})
				So(err, ShouldBeNil)

				So(a.Items, ShouldResemble, b.Items)
				So(a.Size, ShouldEqual, 3)
				So(a.TotalItems, ShouldEqual, 7)
				So(a.TotalPages, ShouldEqual, 3)
			})

			Convey("Then a page past the end should be PlayerNotFound", func() {
				_, err := svc.ByPlayers(ctx, []string{"aLICE"}, model.PageRequest{Index: 3})
				So(model.KindOf(err), ShouldEqual, model.KindPlayerNotFound)
				So(err.Error(), ShouldEqual, "Could not find data for the following player/s: aLICE")
			})

			Convey("Then a page index whose offset overflows should be PlayerNotFound", func() {
				_, err := svc.ByPlayers(ctx, []string{"alice"}, model.PageRequest{Index: 3074457345618258603, Size: 3})
				So(model.KindOf(err), ShouldEqual, model.KindPlayerNotFound)
			})

			Convey("Then a time window should narrow the result", func() {
				after := ts(3).Time
				before := ts(5).Time
				page, err := svc.ByPlayersInRange(ctx, []string{"alice"},
					model.TimeRange{OnOrAfter: &after, OnOrBefore: &before}, model.PageRequest{Size: 10})
				So(err, ShouldBeNil)
				So(page.TotalItems, ShouldEqual, 3)
				So(page.Items[0].Score, ShouldEqual, 30)
			})

			Convey("Then the history should aggregate every spelling", func() {
				h, err := svc.History(ctx, "ALICE")
				So(err, ShouldBeNil)
				So(len(h.AllScore), ShouldEqual, 7)
				So(h.TopScore[0].Score, ShouldEqual, 70)
				So(h.LowScore[0].Score, ShouldEqual, 10)
				So(h.AvgScore, ShouldEqual, 40.0)
			})

			Convey("Then stats should count the records", func() {
				So(svc.GetStats()["totalRecords"], ShouldEqual, 7)
			})
		})

		Convey("When a player has scores 1, 2 and 2", func() {
			for i, score := range []int{1, 2, 2} {
				_, err := svc.Register(ctx, model.ScoreRecord{Player: "p", Score: score, Time: types.NewTimestamp(ts(1 + i).Time)})
				So(err, ShouldBeNil)
			}

			Convey("Then the average should be rounded to two decimals", func() {
				h, err := svc.History(ctx, "p")
				So(err, ShouldBeNil)
				So(h.AvgScore, ShouldEqual, 1.67)
				So(len(h.TopScore), ShouldEqual, 2)
			})
		})

		Convey("When a player name has non-ASCII letters", func() {
			_, err := svc.Register(ctx, model.ScoreRecord{Player: "émile", Score: 10, Time: ts(1)})
			So(err, ShouldBeNil)
			_, err = svc.Register(ctx, model.ScoreRecord{Player: "Émile", Score: 20, Time: ts(2)})
			So(err, ShouldBeNil)

			Convey("Then search and history should ignore its case", func() {
				page, err := svc.ByPlayers(ctx, []string{"ÉMILE"}, model.PageRequest{})
				So(err, ShouldBeNil)
				So(page.TotalItems, ShouldEqual, 2)

				h, err := svc.History(ctx, "ÉMILE")
				So(err, ShouldBeNil)
				So(len(h.AllScore), ShouldEqual, 2)
				So(h.AvgScore, ShouldEqual, 15.0)
			})
		})

		Convey("When an unknown player's history is requested", func() {
			_, err := svc.History(ctx, "ghost")

			Convey("Then it should be HistoryNotFound", func() {
				So(model.KindOf(err), ShouldEqual, model.KindHistoryNotFound)
			})
		})
	})
}
