package server

import (
	"github.com/gofiber/fiber/v2"
)

// SendFriendRequest handles POST /api/friends/requests/:userId
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	env, err := s.friendService.SendRequest(c.UserContext(), currentUserID(c), targetID)
	return respondEnvelope(c, env, err)
}

// AcceptFriendRequest handles POST /api/friends/requests/:userId/accept
// where :userId is the sender of the pending request.
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	return s.answerFriendRequest(c, true)
}

// RefuseFriendRequest handles POST /api/friends/requests/:userId/refuse
func (s *Server) RefuseFriendRequest(c *fiber.Ctx) error {
	return s.answerFriendRequest(c, false)
}

func (s *Server) answerFriendRequest(c *fiber.Ctx, accept bool) error {
	senderID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	env, err := s.friendService.SetAccept(c.UserContext(), senderID, currentUserID(c), accept)
	return respondEnvelope(c, env, err)
}

// CancelFriendRequest handles DELETE /api/friends/requests/:userId
// where :userId is the receiver of the caller's pending request.
func (s *Server) CancelFriendRequest(c *fiber.Ctx) error {
	receiverID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	env, err := s.friendService.CancelRequest(c.UserContext(), currentUserID(c), receiverID)
	return respondEnvelope(c, env, err)
}

// RemoveFriend handles DELETE /api/friends/:userId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	friendID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	env, err := s.friendService.SetRemove(c.UserContext(), currentUserID(c), friendID)
	return respondEnvelope(c, env, err)
}

// GetFriendshipStatus handles GET /api/friends/status/:userId
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	status, err := s.friendService.GetStatus(c.UserContext(), currentUserID(c), otherID)
	return respondData(c, fiber.StatusOK, status, err)
}

// GetFriends handles GET /api/friends
func (s *Server) GetFriends(c *fiber.Ctx) error {
	friends, err := s.friendService.GetFriends(c.UserContext(), currentUserID(c))
	return respondData(c, fiber.StatusOK, friends, err)
}

// GetUserFriends handles GET /api/friends/users/:userId
func (s *Server) GetUserFriends(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	friends, err := s.friendService.GetFriends(c.UserContext(), userID)
	return respondData(c, fiber.StatusOK, friends, err)
}

// GetFriendRequests handles GET /api/friends/requests (incoming, pending)
func (s *Server) GetFriendRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.GetRequests(c.UserContext(), currentUserID(c))
	return respondData(c, fiber.StatusOK, requests, err)
}

// GetSentFriendRequests handles GET /api/friends/requests/sent
func (s *Server) GetSentFriendRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.GetSentRequests(c.UserContext(), currentUserID(c))
	return respondData(c, fiber.StatusOK, requests, err)
}
