package services

import (
	"context"
	"sort"
	"sync"

	"github.com/jupiterclapton/cercle/internal/core/domain"
)

// Fakes en mémoire des ports Driven. Mêmes invariants que les adapters
// Postgres (une arête par paire ordonnée, XOR d'appartenance pour les likes)
// pour que les services se testent sans base.

func pairKey(actorID, targetID string) string {
	return actorID + "|" + targetID
}

// --- USERS ---

type fakeUsers struct {
	byID map[string]*domain.User
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{byID: make(map[string]*domain.User)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) GetByUsernames(_ context.Context, usernames []string) ([]*domain.User, error) {
	var out []*domain.User
	for _, name := range usernames {
		for _, u := range f.byID {
			if u.Username == name {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeUsers) UpdatePrivacy(_ context.Context, id string, isPrivate bool) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsPrivate = isPrivate
	return nil
}

// --- GRAPH ---

type fakeGraph struct {
	edges map[string]domain.RelationState // pairKey -> state

	// le blocage purge aussi les notifications échangées, comme la
	// transaction Postgres
	notifs *fakeNotifRepo
}

func newFakeGraph(notifs *fakeNotifRepo) *fakeGraph {
	return &fakeGraph{edges: make(map[string]domain.RelationState), notifs: notifs}
}

func (f *fakeGraph) State(_ context.Context, actorID, targetID string) (domain.RelationState, error) {
	if s, ok := f.edges[pairKey(actorID, targetID)]; ok {
		return s, nil
	}
	return domain.RelationNone, nil
}

func (f *fakeGraph) PairStates(_ context.Context, actorID, targetID string) (domain.PairStates, error) {
	pair := domain.PairStates{Forward: domain.RelationNone, Backward: domain.RelationNone}
	if s, ok := f.edges[pairKey(actorID, targetID)]; ok {
		pair.Forward = s
	}
	if s, ok := f.edges[pairKey(targetID, actorID)]; ok {
		pair.Backward = s
	}
	return pair, nil
}

func (f *fakeGraph) CreateEdge(_ context.Context, actorID, targetID string, state domain.RelationState) (bool, error) {
	k := pairKey(actorID, targetID)
	if _, ok := f.edges[k]; ok {
		return false, nil
	}
	f.edges[k] = state
	return true, nil
}

func (f *fakeGraph) PromoteRequest(_ context.Context, actorID, targetID string) (bool, error) {
	k := pairKey(actorID, targetID)
	if f.edges[k] != domain.RelationRequested {
		return false, nil
	}
	f.edges[k] = domain.RelationFollowing
	return true, nil
}

func (f *fakeGraph) DeleteEdge(_ context.Context, actorID, targetID string, states ...domain.RelationState) (bool, error) {
	k := pairKey(actorID, targetID)
	current, ok := f.edges[k]
	if !ok {
		return false, nil
	}
	if len(states) > 0 {
		match := false
		for _, s := range states {
			if s == current {
				match = true
			}
		}
		if !match {
			return false, nil
		}
	}
	delete(f.edges, k)
	return true, nil
}

func (f *fakeGraph) IsFollowing(_ context.Context, actorID, targetID string) (bool, error) {
	return f.edges[pairKey(actorID, targetID)] == domain.RelationFollowing, nil
}

func (f *fakeGraph) FollowerIDs(_ context.Context, userID string) ([]string, error) {
	var out []string
	for k, s := range f.edges {
		if s != domain.RelationFollowing {
			continue
		}
		// pairKey = actor|target
		for i := 0; i < len(k); i++ {
			if k[i] == '|' {
				if k[i+1:] == userID {
					out = append(out, k[:i])
				}
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeGraph) BlockPair(_ context.Context, actorID, targetID string) error {
	delete(f.edges, pairKey(actorID, targetID))
	delete(f.edges, pairKey(targetID, actorID))
	if f.notifs != nil {
		f.notifs.deleteBetween(actorID, targetID)
	}
	f.edges[pairKey(actorID, targetID)] = domain.RelationBlocked
	return nil
}

func (f *fakeGraph) FlushRequestsToFollowers(_ context.Context, ownerID string) error {
	for k, s := range f.edges {
		if s != domain.RelationRequested {
			continue
		}
		for i := 0; i < len(k); i++ {
			if k[i] == '|' {
				if k[i+1:] == ownerID {
					f.edges[k] = domain.RelationFollowing
				}
				break
			}
		}
	}
	if f.notifs != nil {
		f.notifs.deleteByKind(ownerID, domain.NotifFollowRequest)
	}
	return nil
}

// --- POSTS ---

type fakePosts struct {
	byID  map[string]*domain.Post
	likes map[string]map[string]bool // postID -> userID -> liked
}

func newFakePosts(posts ...*domain.Post) *fakePosts {
	f := &fakePosts{byID: make(map[string]*domain.Post), likes: make(map[string]map[string]bool)}
	for _, p := range posts {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakePosts) Save(_ context.Context, post *domain.Post) error {
	f.byID[post.ID] = post
	return nil
}

func (f *fakePosts) FindByID(_ context.Context, postID string) (*domain.Post, error) {
	p, ok := f.byID[postID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakePosts) ToggleLike(_ context.Context, postID, userID string) (domain.LikeResult, error) {
	set, ok := f.likes[postID]
	if !ok {
		set = make(map[string]bool)
		f.likes[postID] = set
	}

	var res domain.LikeResult
	if set[userID] {
		delete(set, userID)
	} else {
		set[userID] = true
		res.Liked = true
	}
	res.LikesCount = len(set)
	return res, nil
}

func (f *fakePosts) SetCommentsBlocked(_ context.Context, postID string, blocked bool) error {
	p, ok := f.byID[postID]
	if !ok {
		return domain.ErrNotFound
	}
	p.CommentsBlocked = blocked
	return nil
}

// --- COMMENTS ---

type fakeComments struct {
	byID  map[string]*domain.Comment
	order []string
}

func newFakeComments() *fakeComments {
	return &fakeComments{byID: make(map[string]*domain.Comment)}
}

func (f *fakeComments) Save(_ context.Context, c *domain.Comment) error {
	f.byID[c.ID] = c
	f.order = append(f.order, c.ID)
	return nil
}

func (f *fakeComments) FindByID(_ context.Context, commentID string) (*domain.Comment, error) {
	c, ok := f.byID[commentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeComments) ListByPost(_ context.Context, postID string) ([]*domain.Comment, error) {
	var out []*domain.Comment
	for _, id := range f.order {
		if c, ok := f.byID[id]; ok && c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComments) CountByPost(_ context.Context, postID string) (int, error) {
	n := 0
	for _, c := range f.byID {
		if c.PostID == postID {
			n++
		}
	}
	return n, nil
}

func (f *fakeComments) Update(_ context.Context, c *domain.Comment) error {
	if _, ok := f.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[c.ID] = c
	return nil
}

func (f *fakeComments) DeleteWithReplies(_ context.Context, commentID string) error {
	delete(f.byID, commentID)
	for id, c := range f.byID {
		if c.ParentID == commentID {
			delete(f.byID, id)
		}
	}
	return nil
}

// --- NOTIFICATIONS ---

type fakeNotifRepo struct {
	saved []*domain.Notification
}

func (f *fakeNotifRepo) Save(_ context.Context, n *domain.Notification) error {
	cp := *n
	f.saved = append(f.saved, &cp)
	return nil
}

func (f *fakeNotifRepo) ListByRecipient(_ context.Context, recipientID string) ([]*domain.Notification, error) {
	var out []*domain.Notification
	for _, n := range f.saved {
		if n.Recipient == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifRepo) MarkRead(_ context.Context, recipientID, id string) (*domain.Notification, error) {
	for _, n := range f.saved {
		if n.ID == id && n.Recipient == recipientID {
			n.IsRead = true
			return n, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeNotifRepo) Delete(_ context.Context, recipientID, id string) error {
	for i, n := range f.saved {
		if n.ID == id && n.Recipient == recipientID {
			f.saved = append(f.saved[:i], f.saved[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeNotifRepo) DeleteByTriple(_ context.Context, recipientID, senderID string, kind domain.NotificationKind) error {
	kept := f.saved[:0]
	for _, n := range f.saved {
		if n.Recipient == recipientID && n.Sender == senderID && n.Kind == kind {
			continue
		}
		kept = append(kept, n)
	}
	f.saved = kept
	return nil
}

func (f *fakeNotifRepo) deleteBetween(a, b string) {
	kept := f.saved[:0]
	for _, n := range f.saved {
		if (n.Sender == a && n.Recipient == b) || (n.Sender == b && n.Recipient == a) {
			continue
		}
		kept = append(kept, n)
	}
	f.saved = kept
}

func (f *fakeNotifRepo) deleteByKind(recipientID string, kind domain.NotificationKind) {
	kept := f.saved[:0]
	for _, n := range f.saved {
		if n.Recipient == recipientID && n.Kind == kind {
			continue
		}
		kept = append(kept, n)
	}
	f.saved = kept
}

// byKind filtre les notifications d'un destinataire (helper d'assertion).
func (f *fakeNotifRepo) byKind(recipientID string, kind domain.NotificationKind) []*domain.Notification {
	var out []*domain.Notification
	for _, n := range f.saved {
		if n.Recipient == recipientID && n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// --- BUS ---

// captureBus enregistre les events par destinataire, dans l'ordre de push.
type captureBus struct {
	mu     sync.Mutex
	events map[string][]domain.Event
}

func newCaptureBus() *captureBus {
	return &captureBus{events: make(map[string][]domain.Event)}
}

func (b *captureBus) PushToUser(userID string, event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[userID] = append(b.events[userID], event)
}

func (b *captureBus) forUser(userID string) []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Event(nil), b.events[userID]...)
}

func (b *captureBus) ofType(userID, eventType string) []domain.Event {
	var out []domain.Event
	for _, e := range b.forUser(userID) {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// --- FEED ---

type fakeFeedRepo struct {
	batches   [][]string
	timelines map[string][]*domain.FeedItem
}

func newFakeFeedRepo() *fakeFeedRepo {
	return &fakeFeedRepo{timelines: make(map[string][]*domain.FeedItem)}
}

func (f *fakeFeedRepo) AddToTimelines(_ context.Context, userIDs []string, item *domain.FeedItem) error {
	f.batches = append(f.batches, append([]string(nil), userIDs...))
	for _, id := range userIDs {
		f.timelines[id] = append(f.timelines[id], item)
	}
	return nil
}

func (f *fakeFeedRepo) GetTimeline(_ context.Context, userID string, limit, offset int64) ([]*domain.FeedItem, error) {
	items := f.timelines[userID]
	if offset >= int64(len(items)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(items)) {
		end = int64(len(items))
	}
	return items[offset:end], nil
}

// --- PUBLISHER ---

type fakePublisher struct {
	follows []string // "actor->target"
	posts   []string // postID
}

func (f *fakePublisher) PublishFollowCreated(_ context.Context, actorID, targetID string) error {
	f.follows = append(f.follows, actorID+"->"+targetID)
	return nil
}

func (f *fakePublisher) PublishPostCreated(_ context.Context, post *domain.Post) error {
	f.posts = append(f.posts, post.ID)
	return nil
}
