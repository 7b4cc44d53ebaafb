package model_test

import (
	"testing"

	model "github.com/okian/eventops/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNotification(t *testing.T) {
	convey.Convey("Given notifications of each level", t, func() {
		convey.Convey("Then only the error level counts as failed", func() {
			convey.So(model.Notification{Level: model.LevelError}.Failed(), convey.ShouldBeTrue)
			convey.So(model.Notification{Level: model.LevelSuccess}.Failed(), convey.ShouldBeFalse)
			convey.So(model.Notification{Level: model.LevelWarning}.Failed(), convey.ShouldBeFalse)
			convey.So(model.Notification{}.Failed(), convey.ShouldBeFalse)
		})
	})
}
