package services

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"pgregory.net/rapid"

	"github.com/Gopher0727/StudyRoom/internal/models"
)

// Property: 随机操作序列下，服务端状态始终与参考模型一致，
// 且任何时刻用户不会同时是成员又有待处理申请
func TestProperty_MembershipStateMachine(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property test in short mode")
	}

	rapid.Check(t, func(rt *rapid.T) {
		env := newMembershipEnv(t)
		owner := env.createUser(t, "owner")

		private := rapid.Bool().Draw(rt, "private")
		group := env.createGroup(t, owner.ID, private)

		numUsers := rapid.IntRange(2, 4).Draw(rt, "numUsers")
		users := make([]*models.User, numUsers)
		for i := range users {
			users[i] = env.createUser(t, fmt.Sprintf("user%d", i))
		}

		// 参考模型：每个用户的期望状态
		model := make(map[uint]string)
		for _, u := range users {
			model[u.ID] = StatusNone
		}
		isPrivate := private

		numOps := rapid.IntRange(5, 40).Draw(rt, "numOps")
		for op := 0; op < numOps; op++ {
			u := users[rapid.IntRange(0, numUsers-1).Draw(rt, "user")]

			switch rapid.IntRange(0, 5).Draw(rt, "action") {
			case 0: // RequestOrJoin
				status, err := env.svc.RequestOrJoin(u.ID, group.ID, "")
				switch model[u.ID] {
				case StatusMember:
					if err != ErrAlreadyMember {
						rt.Fatalf("expected ErrAlreadyMember, got %v", err)
					}
				case StatusPending:
					if err != ErrAlreadyRequested {
						rt.Fatalf("expected ErrAlreadyRequested, got %v", err)
					}
				default:
					if err != nil {
						rt.Fatalf("join failed: %v", err)
					}
					if isPrivate {
						if status != StatusPending {
							rt.Fatalf("private group join should yield pending, got %s", status)
						}
						model[u.ID] = StatusPending
					} else {
						if status != StatusMember {
							rt.Fatalf("public group join should yield member, got %s", status)
						}
						model[u.ID] = StatusMember
					}
				}

			case 1: // CancelRequest
				err := env.svc.CancelRequest(u.ID, group.ID)
				if model[u.ID] == StatusPending {
					if err != nil {
						rt.Fatalf("cancel failed: %v", err)
					}
					model[u.ID] = StatusNone
				} else if err != ErrRequestNotFound {
					rt.Fatalf("expected ErrRequestNotFound, got %v", err)
				}

			case 2: // LeaveGroup
				err := env.svc.LeaveGroup(u.ID, group.ID)
				if model[u.ID] == StatusMember {
					if err != nil {
						rt.Fatalf("leave failed: %v", err)
					}
					model[u.ID] = StatusNone
				} else if err != ErrNotMember {
					rt.Fatalf("expected ErrNotMember, got %v", err)
				}

			case 3: // ApproveRequest
				err := approvePending(env, owner.ID, group.ID, u.ID, true)
				if model[u.ID] == StatusPending {
					if err != nil {
						rt.Fatalf("approve failed: %v", err)
					}
					model[u.ID] = StatusMember
				} else if err != errNoPending {
					rt.Fatalf("expected no pending request, got %v", err)
				}

			case 4: // RejectRequest
				err := approvePending(env, owner.ID, group.ID, u.ID, false)
				if model[u.ID] == StatusPending {
					if err != nil {
						rt.Fatalf("reject failed: %v", err)
					}
					model[u.ID] = StatusNone
				} else if err != errNoPending {
					rt.Fatalf("expected no pending request, got %v", err)
				}

			case 5: // TogglePrivacy
				flipped := !isPrivate
				if _, err := env.svc.UpdateGroupSettings(owner.ID, group.ID, &UpdateGroupRequest{IsPrivate: &flipped}); err != nil {
					rt.Fatalf("toggle privacy failed: %v", err)
				}
				isPrivate = flipped
				// 切换公开性不得改变任何已有状态
			}

			// 每步之后全员状态都与模型一致
			for _, check := range users {
				got, err := env.svc.GetUserStatus(check.ID, group.ID)
				if err != nil {
					rt.Fatalf("status query failed: %v", err)
				}
				if got != model[check.ID] {
					rt.Fatalf("user %d: expected %s, got %s", check.ID, model[check.ID], got)
				}
			}
			ownerStatus, err := env.svc.GetUserStatus(owner.ID, group.ID)
			if err != nil || ownerStatus != StatusAdmin {
				rt.Fatalf("owner status drifted: %s, %v", ownerStatus, err)
			}

			// 成员表与申请表互斥
			members, err := env.svc.GetGroupMembers(group.ID)
			if err != nil {
				rt.Fatalf("member list failed: %v", err)
			}
			memberSet := make(map[uint]bool)
			for _, m := range members {
				memberSet[m.UserID] = true
			}
			pending, err := env.svc.ListJoinRequests(owner.ID, group.ID)
			if err != nil {
				rt.Fatalf("request list failed: %v", err)
			}
			for _, p := range pending {
				if memberSet[p.UserID] {
					rt.Fatalf("user %d is both member and pending", p.UserID)
				}
			}
		}
	})
}

var errNoPending = ErrRequestNotFound

// approvePending 找到用户的待处理申请并批准或拒绝，没有申请时返回 errNoPending
func approvePending(env *membershipEnv, ownerID, groupID, userID uint, approve bool) error {
	requests, err := env.svc.ListJoinRequests(ownerID, groupID)
	if err != nil {
		return err
	}
	for _, req := range requests {
		if req.UserID == userID {
			if approve {
				return env.svc.ApproveRequest(ownerID, groupID, req.ID)
			}
			return env.svc.RejectRequest(ownerID, groupID, req.ID, "")
		}
	}
	return errNoPending
}

// Property: 状态推导的优先级恒为 admin > member > pending > none
func TestProperty_DeriveStatusPrecedence(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("owner always derives admin", prop.ForAll(
		func(userID uint, isMember, hasPending bool) bool {
			return DeriveStatus(userID, userID, isMember, hasPending) == StatusAdmin
		},
		gen.UIntRange(1, 1<<20),
		gen.Bool(),
		gen.Bool(),
	))

	properties.Property("membership shadows pending for non-owners", prop.ForAll(
		func(ownerID, userID uint, hasPending bool) bool {
			if ownerID == userID {
				return true
			}
			return DeriveStatus(ownerID, userID, true, hasPending) == StatusMember
		},
		gen.UIntRange(1, 1<<20),
		gen.UIntRange(1, 1<<20),
		gen.Bool(),
	))

	properties.Property("pending only without membership", prop.ForAll(
		func(ownerID, userID uint) bool {
			if ownerID == userID {
				return true
			}
			return DeriveStatus(ownerID, userID, false, true) == StatusPending &&
				DeriveStatus(ownerID, userID, false, false) == StatusNone
		},
		gen.UIntRange(1, 1<<20),
		gen.UIntRange(1, 1<<20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
