package layout

import "math"

// trackExtent 是沿主轴测量一个子元素的结果。
type trackExtent struct {
	full float64 // outline included
	net  float64
}

// measureFunc 在主轴 extent 内准备第 i 个子元素。again 为真表示本轮已测量过，
// 需先重置。
type measureFunc func(i int, extent float64, again bool) (trackExtent, error)

type warnFunc func(msg string, keyvals ...any)

type distribution struct {
	allotted []float64 // full extent of each track
	content  []float64 // full extent the child actually needs
	used     float64
}

// Resolve 在各轨道间分配 available。先满足绝对与百分比轨道，auto 轨道分两轮
// 取内容尺寸，star 轨道平分剩余空间。
func Resolve(specs []DimensionSpec, natural []float64, available float64) []float64 {
	d, _ := distribute(specs, available, func(i int, _ float64, _ bool) (trackExtent, error) {
		var v float64
		if i < len(natural) {
			v = natural[i]
		}
		return trackExtent{full: v, net: v}, nil
	}, nil)
	return d.allotted
}

// distribute 是 RowBox 与 ColumnBox 共用的轨道分配：
//   - Abs、Perc 直接换算，超出 available 时告警但照常分配；
//   - Auto 先按平均份额测量，超出份额的轨道按内容比例瓜分空闲后重测，下限为首轮的完整尺寸；
//   - Star 平分最后剩余的空间，不足时为 0。
func distribute(specs []DimensionSpec, available float64, measure measureFunc, warn warnFunc) (distribution, error) {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	d := distribution{
		allotted: make([]float64, len(specs)),
		content:  make([]float64, len(specs)),
	}

	var autoCount, starCount int
	for i, spec := range specs {
		switch spec.Kind {
		case DimAbsolute, DimPercent:
			extent := spec.EffectiveValue(available)
			m, err := measure(i, extent, false)
			if err != nil {
				return d, err
			}
			d.allotted[i] = extent
			d.content[i] = m.full
			d.used += extent
			if m.full > extent+tolerance {
				warn("content exceeds fixed extent", "track", i, "spec", spec.String(), "allotted", extent, "used", m.full)
			}
		case DimAuto:
			autoCount++
		case DimStar:
			starCount++
		}
	}

	if autoCount > 0 {
		share := math.Max(available-d.used, 0) / float64(autoCount+starCount)
		var pool, oversized float64
		var over []int
		for i, spec := range specs {
			if !spec.IsAuto() {
				continue
			}
			m, err := measure(i, share, false)
			if err != nil {
				return d, err
			}
			d.content[i] = m.full
			if m.full <= share {
				d.allotted[i] = m.full
				d.used += m.full
				pool += share - m.full
				continue
			}
			pool += share
			oversized += m.full
			over = append(over, i)
		}

		for _, i := range over {
			// 下限是首轮测得的完整尺寸（含 outline）。
			extent := math.Max(pool*d.content[i]/oversized, d.content[i])
			m, err := measure(i, extent, true)
			if err != nil {
				return d, err
			}
			if m.full > extent+tolerance {
				warn("auto content exceeds redistributed extent", "track", i, "allotted", extent, "used", m.full)
			}
			d.content[i] = m.full
			d.allotted[i] = m.full
			d.used += m.full
		}
	}

	if starCount > 0 {
		rest := available - d.used
		if rest <= 0 {
			// Nothing left: star tracks take their natural size.
			warn("no space left for star tracks", "available", available, "used", d.used)
			for i, spec := range specs {
				if !spec.IsStar() {
					continue
				}
				m, err := measure(i, available, false)
				if err != nil {
					return d, err
				}
				d.content[i] = m.full
				d.allotted[i] = m.full
				d.used += m.full
			}
		} else {
			share := rest / float64(starCount)
			for i, spec := range specs {
				if !spec.IsStar() {
					continue
				}
				m, err := measure(i, share, false)
				if err != nil {
					return d, err
				}
				d.content[i] = m.full
				d.allotted[i] = share
				d.used += share
				if m.full > share+tolerance {
					warn("content exceeds star extent", "track", i, "allotted", share, "used", m.full)
				}
			}
		}
	}
	return d, nil
}
