package engine

import (
	"bytes"

	"wdedup/profile"
)

// Merge folds the leaf segments into a single root profile, executing the
// planner's sequence of pairwise merges. Every completed merge is logged
// before its inputs may be collected, so replaying the log against a fresh
// planner — which yields the identical sequence — skips exactly the merges
// already done. Returns the root segment id.
func Merge(env *Env, leaves []Segment, planner Planner, gc bool) (uint64, error) {
	if len(leaves) == 0 {
		return 0, env.LogCorrupt()
	}

	if !env.recovered {
	replay:
		for {
			rec, eof, err := env.ilog.next()
			if err != nil {
				return 0, err
			}
			if eof {
				if err := env.RecoveryDone(); err != nil {
					return 0, err
				}
				break replay
			}
			switch rec.Tag {
			case tagMerge:
				var p Plan
				if !planner.Pop(&p) {
					return 0, env.LogCorrupt()
				}
				if p.Left != rec.Left || p.Right != rec.Right || p.ID != rec.Out {
					return 0, env.LogCorrupt()
				}
				if gc {
					if err := env.Remove(p.Left); err != nil {
						return 0, err
					}
					if err := env.Remove(p.Right); err != nil {
						return 0, err
					}
				}
				planner.Push(MergeSegment{Plan: p, Size: rec.Size})
			case tagMergeEnd:
				var p Plan
				if planner.Pop(&p) || p.ID != rec.Root {
					return 0, env.LogCorrupt()
				}
				env.log.Debug().Uint64("root", rec.Root).Msg("wmerge already complete, skipping")
				return rec.Root, nil
			default:
				return 0, env.LogCorrupt()
			}
		}
	}

	for {
		var p Plan
		if !planner.Pop(&p) {
			if err := env.olog.appendMergeEnd(p.ID); err != nil {
				return 0, err
			}
			env.log.Info().Uint64("root", p.ID).Msg("wmerge done")
			return p.ID, nil
		}
		size, err := mergeOnce(env, p)
		if err != nil {
			return 0, err
		}
		if err := env.olog.appendMerge(p.Left, p.Right, p.ID, size); err != nil {
			return 0, err
		}
		if gc {
			if err := env.Remove(p.Left); err != nil {
				return 0, err
			}
			if err := env.Remove(p.Right); err != nil {
				return 0, err
			}
		}
		planner.Push(MergeSegment{Plan: p, Size: size})
		mergesDone.Inc()
		profileBytesWritten.Add(float64(size))
		env.log.Debug().
			Uint64("left", p.Left).
			Uint64("right", p.Right).
			Uint64("out", p.ID).
			Uint64("size", size).
			Msg("merged")
	}
}

func mergeOnce(env *Env, p Plan) (size uint64, err error) {
	left, err := env.OpenInput(p.Left)
	if err != nil {
		return 0, err
	}
	defer left.Close()
	right, err := env.OpenInput(p.Right)
	if err != nil {
		return 0, err
	}
	defer right.Close()
	out, err := env.OpenOutput(p.ID)
	if err != nil {
		return 0, err
	}
	if err := mergeStreams(left, right, out); err != nil {
		out.Close()
		return 0, err
	}
	return out.Close()
}

// mergeStreams merges two sorted, deduplicated profiles. A word on one
// side only passes through unchanged; a word on both sides is repeated by
// definition, whatever the flags said.
func mergeStreams(left, right *profile.Reader, out *profile.Writer) error {
	for !left.Empty() && !right.Empty() {
		switch c := bytes.Compare(left.Peek().Word, right.Peek().Word); {
		case c < 0:
			it, err := left.Pop()
			if err != nil {
				return err
			}
			if err := out.PushItem(it); err != nil {
				return err
			}
		case c > 0:
			it, err := right.Pop()
			if err != nil {
				return err
			}
			if err := out.PushItem(it); err != nil {
				return err
			}
		default:
			it, err := left.Pop()
			if err != nil {
				return err
			}
			if _, err := right.Pop(); err != nil {
				return err
			}
			if err := out.Push(it.Word, true, 0); err != nil {
				return err
			}
		}
	}
	if err := drain(left, out); err != nil {
		return err
	}
	return drain(right, out)
}

func drain(r *profile.Reader, out *profile.Writer) error {
	for !r.Empty() {
		it, err := r.Pop()
		if err != nil {
			return err
		}
		if err := out.PushItem(it); err != nil {
			return err
		}
	}
	return nil
}
