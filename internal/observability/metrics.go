package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// FriendTransitions counts friend-request state changes by target status.
	FriendTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_friend_transitions_total",
		Help: "Friend request transitions by operation and resulting status",
	}, []string{"operation", "status"})

	// FriendRejections counts operations answered with success=false.
	FriendRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_friend_rejections_total",
		Help: "Friend operations rejected because of the current relationship state",
	}, []string{"operation"})

	// BlockActions counts block registry mutations, split by whether anything changed.
	BlockActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_block_actions_total",
		Help: "Block and unblock actions",
	}, []string{"action", "changed"})

	// LikeToggles counts like toggles by resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_like_toggles_total",
		Help: "Like toggles by result",
	}, []string{"result"})

	// PostEdits counts post edit operations by kind and outcome.
	PostEdits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_post_edits_total",
		Help: "Post edits by operation kind and outcome",
	}, []string{"kind", "outcome"})

	// UploadFailures counts media uploads that were skipped after an error.
	UploadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_upload_failures_total",
		Help: "Media uploads that failed and were skipped",
	}, []string{"prefix"})
)
