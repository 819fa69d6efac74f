package multicontrol

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPermissionBits(t *testing.T) {
	Convey("The permission bit assignment is a fixed wire contract", t, func() {
		So(uint32(PermNone), ShouldEqual, 0)
		So(uint32(PermCreateProposal), ShouldEqual, 1)
		So(uint32(PermApproveProposal), ShouldEqual, 2)
		So(uint32(PermExecuteProposal), ShouldEqual, 4)
		So(uint32(PermDeleteProposal), ShouldEqual, 8)
		So(uint32(PermRemoveApproval), ShouldEqual, 16)
		So(uint32(PermAll), ShouldEqual, uint32(0xFFFFFFFF))

		Convey("Permits covers single and combined bits", func() {
			mask := PermCreateProposal | PermApproveProposal
			So(mask.Permits(PermCreateProposal), ShouldBeTrue)
			So(mask.Permits(PermApproveProposal), ShouldBeTrue)
			So(mask.Permits(PermCreateProposal|PermApproveProposal), ShouldBeTrue)
			So(mask.Permits(PermExecuteProposal), ShouldBeFalse)
			So(mask.Permits(PermAll), ShouldBeFalse)
			So(PermAll.Permits(mask), ShouldBeTrue)
		})

		Convey("Every mask permits none", func() {
			So(PermNone.Permits(PermNone), ShouldBeTrue)
			So(PermDeleteProposal.Permits(PermNone), ShouldBeTrue)
		})

		Convey("SubsetOf mirrors Permits", func() {
			mask := PermExecuteProposal | PermDeleteProposal
			So(mask.SubsetOf(PermAll), ShouldBeTrue)
			So(mask.SubsetOf(mask), ShouldBeTrue)
			So(mask.SubsetOf(PermExecuteProposal), ShouldBeFalse)
			So(PermNone.SubsetOf(PermNone), ShouldBeTrue)
		})

		Convey("String names the set bits", func() {
			So(PermNone.String(), ShouldEqual, "none")
			mask := PermCreateProposal | PermRemoveApproval
			So(mask.String(), ShouldContainSubstring, "create-proposal")
			So(mask.String(), ShouldContainSubstring, "remove-approval")
		})
	})
}
