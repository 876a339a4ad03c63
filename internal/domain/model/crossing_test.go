package model_test

import (
	"testing"

	model "github.com/okian/greenhorn/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPlayerID(t *testing.T) {
	convey.Convey("Given player identifiers", t, func() {
		convey.Convey("Then blank ids should be invalid", func() {
			convey.So(model.PlayerID("").Valid(), convey.ShouldBeFalse)
			convey.So(model.PlayerID("   ").Valid(), convey.ShouldBeFalse)
		})

		convey.Convey("Then non-blank ids should be valid", func() {
			convey.So(model.PlayerID("char-42").Valid(), convey.ShouldBeTrue)
		})
	})
}

func TestCrossing(t *testing.T) {
	convey.Convey("Given a new crossing", t, func() {
		c := model.NewCrossing("char-1", 10, 10)

		convey.Convey("Then it should carry the player, level and threshold", func() {
			convey.So(c.PlayerID, convey.ShouldEqual, model.PlayerID("char-1"))
			convey.So(c.Level, convey.ShouldEqual, 10)
			convey.So(c.Threshold, convey.ShouldEqual, 10)
			convey.So(c.ID, convey.ShouldNotBeEmpty)
			convey.So(c.At.IsZero(), convey.ShouldBeFalse)
		})

		convey.Convey("And two crossings should not share an id", func() {
			other := model.NewCrossing("char-1", 10, 10)
			convey.So(other.ID, convey.ShouldNotEqual, c.ID)
		})

		convey.Convey("When rendering a warning", func() {
			w := model.WarningFor(c)

			convey.Convey("Then it should mention the reached level", func() {
				convey.So(w.ID, convey.ShouldEqual, c.ID)
				convey.So(w.PlayerID, convey.ShouldEqual, c.PlayerID)
				convey.So(w.Text, convey.ShouldContainSubstring, "level 10")
				convey.So(w.At, convey.ShouldEqual, c.At)
			})
		})
	})
}
