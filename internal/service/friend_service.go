package service

import (
	"context"

	"socialgraph/internal/models"
	"socialgraph/internal/notifications"
	"socialgraph/internal/observability"
	"socialgraph/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Messages returned in friend envelopes.
const (
	MsgRequestSent       = "Friend request sent"
	MsgPeerRequested     = "User already sent you a request or you are already friends"
	MsgAlreadyRequested  = "Friend request already sent"
	MsgAlreadyFriends    = "You are already friends"
	MsgNoPendingRequest  = "Already friends or no pending request"
	MsgRequestAccepted   = "Friend request accepted"
	MsgRequestRefused    = "Friend request refused"
	MsgRequestCancelled  = "Friend request cancelled"
	MsgFriendRemoved     = "Friend removed"
	MsgConcurrentRequest = "Friend request changed concurrently, try again"
)

// EventPublisher delivers relationship events to a user.
type EventPublisher interface {
	PublishEvent(ctx context.Context, userID uint, ev notifications.Event) error
}

// FriendService provides friend-request and friendship business logic.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	events     EventPublisher
}

// NewFriendService returns a new FriendService. events may be nil.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository, events EventPublisher) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		events:     events,
	}
}

func isActive(req *models.FriendRequest) bool {
	return req != nil && (req.Status == models.FriendStatusSendReq || req.Status == models.FriendStatusAccepted)
}

func (s *FriendService) reject(operation, message string) models.Envelope {
	observability.FriendRejections.WithLabelValues(operation).Inc()
	return models.Fail(message)
}

func (s *FriendService) notify(ctx context.Context, userID uint, ev notifications.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, userID, ev); err != nil {
		observability.LogBestEffortFailure(ctx, "notify."+ev.Type, err, "user_id", userID)
	}
}

// transition applies to with optimistic locking. When another writer bumped
// the row first it re-reads once and retries if the row is still in a
// source state. ok is false when the row has left every source state.
func (s *FriendService) transition(ctx context.Context, operation string, req *models.FriendRequest, to models.FriendStatus, from ...models.FriendStatus) (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.friendRepo.TransitionStatus(ctx, req, to, from...)
		if err != nil {
			return false, err
		}
		if ok {
			observability.FriendTransitions.WithLabelValues(operation, string(to)).Inc()
			return true, nil
		}

		current, err := s.friendRepo.FindDirected(ctx, req.SenderID, req.ReceiverID)
		if err != nil {
			return false, err
		}
		if current == nil || !statusIn(current.Status, from) {
			if current != nil {
				*req = *current
			}
			return false, nil
		}
		*req = *current
	}
	return false, nil
}

func statusIn(status models.FriendStatus, set []models.FriendStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

// SendRequest creates or reactivates the sender->receiver request.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID uint) (env models.Envelope, err error) {
	ctx, span := observability.StartSpan(ctx, "friend", "send_request",
		attribute.Int64("sender_id", int64(senderID)), attribute.Int64("receiver_id", int64(receiverID)))
	defer func() { observability.EndSpan(span, err) }()

	if senderID == receiverID {
		return models.Envelope{}, models.NewValidationError("Cannot send friend request to yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		return models.Envelope{}, err
	}

	// The reverse direction is checked first so simultaneous requests
	// do not produce two pending rows.
	reverse, err := s.friendRepo.FindDirected(ctx, receiverID, senderID)
	if err != nil {
		return models.Envelope{}, err
	}
	if isActive(reverse) {
		return s.reject("send_request", MsgPeerRequested), nil
	}

	existing, err := s.friendRepo.FindDirected(ctx, senderID, receiverID)
	if err != nil {
		return models.Envelope{}, err
	}

	if existing != nil {
		switch existing.Status {
		case models.FriendStatusAccepted:
			return s.reject("send_request", MsgAlreadyFriends), nil
		case models.FriendStatusSendReq:
			return s.reject("send_request", MsgAlreadyRequested), nil
		}

		ok, err := s.transition(ctx, "send_request", existing, models.FriendStatusSendReq,
			models.FriendStatusRefused, models.FriendStatusCancel)
		if err != nil {
			return models.Envelope{}, err
		}
		if !ok {
			return s.reject("send_request", staleMessage(existing)), nil
		}
		yielded, err := s.yieldToEarlierPeer(ctx, existing)
		if err != nil {
			return models.Envelope{}, err
		}
		if yielded {
			return s.reject("send_request", MsgPeerRequested), nil
		}
		s.notify(ctx, receiverID, notifications.Event{
			Type: notifications.EventFriendRequestReceived, ActorID: senderID, RequestID: existing.ID,
		})
		return models.Succeeded(MsgRequestSent, existing), nil
	}

	req := &models.FriendRequest{SenderID: senderID, ReceiverID: receiverID, Status: models.FriendStatusSendReq}
	if err := s.friendRepo.Create(ctx, req); err != nil {
		if models.IsCode(err, "CONFLICT") {
			return s.reject("send_request", MsgAlreadyRequested), nil
		}
		return models.Envelope{}, err
	}

	yielded, err := s.yieldToEarlierPeer(ctx, req)
	if err != nil {
		return models.Envelope{}, err
	}
	if yielded {
		return s.reject("send_request", MsgPeerRequested), nil
	}

	observability.FriendTransitions.WithLabelValues("send_request", string(models.FriendStatusSendReq)).Inc()
	s.notify(ctx, receiverID, notifications.Event{
		Type: notifications.EventFriendRequestReceived, ActorID: senderID, RequestID: req.ID,
	})
	return models.Succeeded(MsgRequestSent, req), nil
}

// yieldToEarlierPeer runs after req was written as SEND_REQ. Both sides may
// have passed the reverse check at once; the row with the lower id wins and
// req is withdrawn to CANCEL when it lost.
func (s *FriendService) yieldToEarlierPeer(ctx context.Context, req *models.FriendRequest) (bool, error) {
	reverse, err := s.friendRepo.FindDirected(ctx, req.ReceiverID, req.SenderID)
	if err != nil {
		return false, err
	}
	if !isActive(reverse) || reverse.ID > req.ID {
		return false, nil
	}
	if _, err := s.friendRepo.TransitionStatus(ctx, req, models.FriendStatusCancel, models.FriendStatusSendReq); err != nil {
		return false, err
	}
	return true, nil
}

func staleMessage(req *models.FriendRequest) string {
	switch req.Status {
	case models.FriendStatusAccepted:
		return MsgAlreadyFriends
	case models.FriendStatusSendReq:
		return MsgAlreadyRequested
	default:
		return MsgConcurrentRequest
	}
}

// SetAccept answers the pending sender->receiver request.
func (s *FriendService) SetAccept(ctx context.Context, senderID, receiverID uint, accept bool) (env models.Envelope, err error) {
	ctx, span := observability.StartSpan(ctx, "friend", "set_accept",
		attribute.Int64("sender_id", int64(senderID)), attribute.Int64("receiver_id", int64(receiverID)),
		attribute.Bool("accept", accept))
	defer func() { observability.EndSpan(span, err) }()

	req, err := s.friendRepo.FindDirected(ctx, senderID, receiverID)
	if err != nil {
		return models.Envelope{}, err
	}
	if req == nil {
		return models.Envelope{}, models.NewNoDataError()
	}
	if req.Status != models.FriendStatusSendReq {
		return s.reject("set_accept", MsgNoPendingRequest), nil
	}

	to, msg := models.FriendStatusRefused, MsgRequestRefused
	if accept {
		to, msg = models.FriendStatusAccepted, MsgRequestAccepted
	}
	ok, err := s.transition(ctx, "set_accept", req, to, models.FriendStatusSendReq)
	if err != nil {
		return models.Envelope{}, err
	}
	if !ok {
		return s.reject("set_accept", MsgNoPendingRequest), nil
	}

	if accept {
		s.notify(ctx, senderID, notifications.Event{
			Type: notifications.EventFriendRequestAccepted, ActorID: receiverID, RequestID: req.ID,
		})
	}
	return models.Succeeded(msg, req), nil
}

// CancelRequest withdraws the sender's pending request.
func (s *FriendService) CancelRequest(ctx context.Context, senderID, receiverID uint) (env models.Envelope, err error) {
	ctx, span := observability.StartSpan(ctx, "friend", "cancel_request",
		attribute.Int64("sender_id", int64(senderID)), attribute.Int64("receiver_id", int64(receiverID)))
	defer func() { observability.EndSpan(span, err) }()

	req, err := s.friendRepo.FindDirected(ctx, senderID, receiverID)
	if err != nil {
		return models.Envelope{}, err
	}
	if req == nil {
		return models.Envelope{}, models.NewNoDataError()
	}
	if req.Status != models.FriendStatusSendReq {
		return s.reject("cancel_request", MsgNoPendingRequest), nil
	}

	ok, err := s.transition(ctx, "cancel_request", req, models.FriendStatusCancel, models.FriendStatusSendReq)
	if err != nil {
		return models.Envelope{}, err
	}
	if !ok {
		return s.reject("cancel_request", MsgNoPendingRequest), nil
	}
	return models.Succeeded(MsgRequestCancelled, req), nil
}

// SetRemove ends an accepted friendship regardless of who sent the request.
func (s *FriendService) SetRemove(ctx context.Context, userID, friendID uint) (env models.Envelope, err error) {
	ctx, span := observability.StartSpan(ctx, "friend", "remove",
		attribute.Int64("user_id", int64(userID)), attribute.Int64("friend_id", int64(friendID)))
	defer func() { observability.EndSpan(span, err) }()

	req, err := s.friendRepo.FindAccepted(ctx, userID, friendID)
	if err != nil {
		return models.Envelope{}, err
	}
	if req == nil {
		return models.Envelope{}, models.NewNoDataError()
	}

	ok, err := s.transition(ctx, "remove", req, models.FriendStatusCancel, models.FriendStatusAccepted)
	if err != nil {
		return models.Envelope{}, err
	}
	if !ok {
		return models.Envelope{}, models.NewNoDataError()
	}
	return models.Succeeded(MsgFriendRemoved, req), nil
}

// GetStatus reports whether a and b are friends. An accepted row in either
// direction wins over a stale row the other way. No row and a non-accepted
// row are both "not friends".
func (s *FriendService) GetStatus(ctx context.Context, a, b uint) (*models.FriendStatusView, error) {
	req, err := s.friendRepo.FindAccepted(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req, err = s.friendRepo.FindEitherDirection(ctx, a, b)
		if err != nil {
			return nil, err
		}
	}
	if req == nil {
		return &models.FriendStatusView{}, nil
	}
	return &models.FriendStatusView{
		IsFriend: req.Status == models.FriendStatusAccepted,
		Status:   req.Status,
		SenderID: req.SenderID,
	}, nil
}

// GetFriends lists userID's friends, most recent friendship first.
func (s *FriendService) GetFriends(ctx context.Context, userID uint) ([]models.FriendView, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	friends := make([]models.FriendView, 0, len(rows))
	for i := range rows {
		friends = append(friends, models.FriendView{
			PublicUser: models.ToPublicUser(rows[i].Peer(userID)),
			CreatedAt:  rows[i].CreatedAt,
		})
	}
	return friends, nil
}

// GetRequests lists pending requests addressed to userID.
func (s *FriendService) GetRequests(ctx context.Context, userID uint) ([]models.FriendRequestView, error) {
	rows, err := s.friendRepo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	return requestViews(rows, func(r *models.FriendRequest) *models.User { return r.Sender }), nil
}

// GetSentRequests lists pending requests userID has sent.
func (s *FriendService) GetSentRequests(ctx context.Context, userID uint) ([]models.FriendRequestView, error) {
	rows, err := s.friendRepo.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return requestViews(rows, func(r *models.FriendRequest) *models.User { return r.Receiver }), nil
}

func requestViews(rows []models.FriendRequest, peer func(*models.FriendRequest) *models.User) []models.FriendRequestView {
	views := make([]models.FriendRequestView, 0, len(rows))
	for i := range rows {
		views = append(views, models.FriendRequestView{
			ID:        rows[i].ID,
			User:      models.ToPublicUser(peer(&rows[i])),
			CreatedAt: rows[i].CreatedAt,
		})
	}
	return views
}
