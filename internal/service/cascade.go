package service

import (
	"context"

	"eventhub/internal/models"
	"eventhub/internal/observability"
	"eventhub/internal/repository"
)

// cascadeStats counts the rows a cascading delete removed. It is recorded
// only after the transaction commits.
type cascadeStats struct {
	registrations int64
	posts         int64
	postLikes     int64
	comments      int64
	commentLikes  int64
}

func (c *cascadeStats) record() {
	observability.CascadeDeletes.WithLabelValues("registration").Add(float64(c.registrations))
	observability.CascadeDeletes.WithLabelValues("post").Add(float64(c.posts))
	observability.CascadeDeletes.WithLabelValues("post_like").Add(float64(c.postLikes))
	observability.CascadeDeletes.WithLabelValues("comment").Add(float64(c.comments))
	observability.CascadeDeletes.WithLabelValues("comment_like").Add(float64(c.commentLikes))
}

// postOrder returns the ids of the comment trees rooted at roots, every
// reply before its parent.
func postOrder(all []*models.Comment, roots []uint) []uint {
	children := make(map[uint][]uint, len(all))
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	type frame struct {
		id       uint
		expanded bool
	}
	out := make([]uint, 0, len(all))
	seen := make(map[uint]bool, len(all))
	for _, root := range roots {
		stack := []frame{{id: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.expanded {
				out = append(out, top.id)
				stack = stack[:len(stack)-1]
				continue
			}
			top.expanded = true
			if seen[top.id] {
				stack = stack[:len(stack)-1]
				continue
			}
			seen[top.id] = true
			kids := children[top.id]
			for i := len(kids) - 1; i >= 0; i-- {
				if !seen[kids[i]] {
					stack = append(stack, frame{id: kids[i]})
				}
			}
		}
	}
	return out
}

// forestRoots returns the comments whose parent is not among all.
func forestRoots(all []*models.Comment) []uint {
	present := make(map[uint]bool, len(all))
	for _, c := range all {
		present[c.ID] = true
	}
	var roots []uint
	for _, c := range all {
		if c.ParentID == nil || !present[*c.ParentID] {
			roots = append(roots, c.ID)
		}
	}
	return roots
}

// deleteComments removes the likes of ids and then the comments themselves.
func deleteComments(ctx context.Context, tx *repository.Store, ids []uint, stats *cascadeStats) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := tx.Likes.DeleteCommentLikes(ctx, ids)
	if err != nil {
		return err
	}
	stats.commentLikes += n
	n, err = tx.Comments.DeleteIDs(ctx, ids)
	if err != nil {
		return err
	}
	stats.comments += n
	return nil
}

// purgePostContent deletes every comment tree and like hanging off postIDs.
// The post rows themselves are left to the caller.
func purgePostContent(ctx context.Context, tx *repository.Store, postIDs []uint, stats *cascadeStats) error {
	if len(postIDs) == 0 {
		return nil
	}
	all, err := tx.Comments.ListByPosts(ctx, postIDs)
	if err != nil {
		return err
	}
	if err := deleteComments(ctx, tx, postOrder(all, forestRoots(all)), stats); err != nil {
		return err
	}
	n, err := tx.Likes.DeletePostLikes(ctx, postIDs)
	if err != nil {
		return err
	}
	stats.postLikes += n
	return nil
}
