package detector

import (
	"fmt"
	"math"
	"sort"

	"github.com/yalue/onnxruntime_go"

	"github.com/MANISPIN/align-images-for-lenticular/internal/match"
)

// decodeFeatures turns the raw model outputs into keypoints and unit
// descriptors. The score map is [1,H,W] (optionally [1,1,H,W]); descriptors
// are a dense [1,D,Hc,Wc] grid sampled at the keypoint's cell.
func decodeFeatures(scoresVal, descVal onnxruntime_go.Value, cfg Config) (*Features, error) {
	scores, ok := scoresVal.(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("expected float32 score tensor, got %T", scoresVal)
	}
	descriptors, ok := descVal.(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("expected float32 descriptor tensor, got %T", descVal)
	}

	h, w, err := heatmapDims(scores.GetShape())
	if err != nil {
		return nil, err
	}
	descShape := descriptors.GetShape()
	if len(descShape) != 4 {
		return nil, fmt.Errorf("expected 4D descriptor tensor, got %dD", len(descShape))
	}
	depth := int(descShape[1])
	hc, wc := int(descShape[2]), int(descShape[3])
	if hc <= 0 || wc <= 0 || depth <= 0 {
		return nil, fmt.Errorf("degenerate descriptor shape %v", descShape)
	}

	kps := pickKeypoints(scores.GetData(), h, w, cfg)

	feats := &Features{
		KeyPoints:   kps,
		Descriptors: make([][]float32, len(kps)),
	}
	descData := descriptors.GetData()
	strideY := float64(h) / float64(hc)
	strideX := float64(w) / float64(wc)
	for i, kp := range kps {
		cy := min(int(kp.Y/strideY), hc-1)
		cx := min(int(kp.X/strideX), wc-1)
		feats.Descriptors[i] = sampleDescriptor(descData, depth, hc, wc, cy, cx)
	}
	return feats, nil
}

func heatmapDims(shape []int64) (h, w int, err error) {
	switch len(shape) {
	case 3:
		return int(shape[1]), int(shape[2]), nil
	case 4:
		return int(shape[2]), int(shape[3]), nil
	default:
		return 0, 0, fmt.Errorf("expected 3D or 4D score tensor, got %dD", len(shape))
	}
}

// pickKeypoints thresholds the heatmap, keeps 3x3 local maxima and returns
// at most MaxKeypoints points, strongest first. Ties break on scan order so
// detection is deterministic.
func pickKeypoints(scores []float32, h, w int, cfg Config) []match.KeyPoint {
	var kps []match.KeyPoint
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			s := scores[y*w+x]
			if s < cfg.ScoreThreshold {
				continue
			}
			if !isLocalMax(scores, w, x, y, s) {
				continue
			}
			kps = append(kps, match.KeyPoint{X: float64(x), Y: float64(y), Score: float64(s)})
		}
	}

	sort.SliceStable(kps, func(i, j int) bool { return kps[i].Score > kps[j].Score })
	if len(kps) > cfg.MaxKeypoints {
		kps = kps[:cfg.MaxKeypoints]
	}
	return kps
}

func isLocalMax(scores []float32, w, x, y int, s float32) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if scores[(y+dy)*w+(x+dx)] > s {
				return false
			}
		}
	}
	return true
}

// sampleDescriptor extracts and L2-normalizes the descriptor column at one
// grid cell.
func sampleDescriptor(data []float32, depth, hc, wc, cy, cx int) []float32 {
	out := make([]float32, depth)
	plane := hc * wc
	var norm float64
	for d := 0; d < depth; d++ {
		v := data[d*plane+cy*wc+cx]
		out[d] = v
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1.0 / math.Sqrt(norm))
		for d := range out {
			out[d] *= inv
		}
	}
	return out
}
