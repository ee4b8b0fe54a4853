package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// AbbrevLength matches git's default core.abbrev for small repositories.
const AbbrevLength = 7

// maxCandidates mirrors `git describe --candidates` default.
const maxCandidates = 10

// NativeDescriber answers describe queries for the repository enclosing Dir.
type NativeDescriber struct {
	Dir string
}

// NewNativeDescriber returns a describer rooted at dir.
func NewNativeDescriber(dir string) *NativeDescriber {
	return &NativeDescriber{Dir: dir}
}

// tagRef is a tag peeled to the commit it names.
type tagRef struct {
	name      string
	commit    plumbing.Hash
	annotated bool
	when      int64 // tagger time for annotated tags, unix seconds
}

// better reports whether a should win over b when both name the same commit.
// Annotated tags beat lightweight ones, then the newer tag, then the smaller name.
func (a tagRef) better(b tagRef) bool {
	if a.annotated != b.annotated {
		return a.annotated
	}
	if a.when != b.when {
		return a.when > b.when
	}
	return a.name < b.name
}

// ExactTag returns the tag pointing at HEAD.
func (d *NativeDescriber) ExactTag(ctx context.Context) (string, error) {
	repo, head, err := d.open()
	if err != nil {
		return "", err
	}
	tags, err := peeledTags(ctx, repo)
	if err != nil {
		return "", err
	}
	if best, ok := pick(tags[head]); ok {
		return best.name, nil
	}
	return "", ErrNoExactTag
}

// Describe returns the nearest reachable tag decorated with the distance and
// abbreviated HEAD hash, the bare tag when HEAD is tagged, or the abbreviated
// hash when no tag is reachable.
func (d *NativeDescriber) Describe(ctx context.Context) (string, error) {
	repo, head, err := d.open()
	if err != nil {
		return "", err
	}
	tags, err := peeledTags(ctx, repo)
	if err != nil {
		return "", err
	}
	if best, ok := pick(tags[head]); ok {
		return best.name, nil
	}

	candidates, err := nearestTagged(ctx, repo, head, tags)
	if err != nil {
		return "", err
	}
	abbrev := head.String()[:AbbrevLength]
	if len(candidates) == 0 {
		return abbrev, nil
	}

	headCount, err := countAncestors(ctx, repo, head)
	if err != nil {
		return "", err
	}

	var (
		chosen   tagRef
		distance = -1
	)
	for _, c := range candidates {
		n, err := countAncestors(ctx, repo, c.commit)
		if err != nil {
			return "", err
		}
		dist := headCount - n
		if distance < 0 || dist < distance || (dist == distance && c.better(chosen)) {
			chosen, distance = c, dist
		}
	}
	return chosen.name + "-" + strconv.Itoa(distance) + "-g" + abbrev, nil
}

func (d *NativeDescriber) open() (*git.Repository, plumbing.Hash, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return nil, plumbing.ZeroHash, fmt.Errorf("open repository %s: %w", dir, err)
	}
	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, plumbing.ZeroHash, ErrNoCommits
		}
		return nil, plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
	}
	return repo, ref.Hash(), nil
}

// peeledTags indexes every tag by the commit it ultimately names.
func peeledTags(ctx context.Context, repo *git.Repository) (map[plumbing.Hash][]tagRef, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer iter.Close()

	out := map[plumbing.Hash][]tagRef{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := tagRef{name: ref.Name().Short(), commit: ref.Hash()}
		if obj, err := repo.TagObject(ref.Hash()); err == nil {
			commit, err := obj.Commit()
			if err != nil {
				// tag of a tree or blob; describe ignores it
				return nil
			}
			t.commit = commit.Hash
			t.annotated = true
			t.when = obj.Tagger.When.Unix()
		} else if _, err := repo.CommitObject(ref.Hash()); err != nil {
			return nil
		}
		out[t.commit] = append(out[t.commit], t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index tags: %w", err)
	}
	return out, nil
}

func pick(tags []tagRef) (tagRef, bool) {
	if len(tags) == 0 {
		return tagRef{}, false
	}
	best := tags[0]
	for _, t := range tags[1:] {
		if t.better(best) {
			best = t
		}
	}
	return best, true
}

// nearestTagged walks history breadth-first from head and returns the best tag
// of the first tagged commits it meets, capped at maxCandidates.
func nearestTagged(ctx context.Context, repo *git.Repository, head plumbing.Hash, tags map[plumbing.Hash][]tagRef) ([]tagRef, error) {
	var found []tagRef
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{head}
	for len(queue) > 0 && len(found) < maxCandidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := queue[0]
		queue = queue[1:]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		if best, ok := pick(tags[h]); ok {
			found = append(found, best)
			// history behind a tagged commit is described by that tag
			continue
		}
		commit, err := repo.CommitObject(h)
		if err != nil {
			return nil, fmt.Errorf("read commit %s: %w", h, err)
		}
		queue = append(queue, commit.ParentHashes...)
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].name < found[j].name })
	return found, nil
}

// countAncestors returns the number of commits reachable from h, h included.
func countAncestors(ctx context.Context, repo *git.Repository, h plumbing.Hash) (int, error) {
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{h}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		cur := queue[0]
		queue = queue[1:]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		commit, err := repo.CommitObject(cur)
		if err != nil {
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				// shallow clone boundary
				continue
			}
			return 0, fmt.Errorf("read commit %s: %w", cur, err)
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return len(seen), nil
}
