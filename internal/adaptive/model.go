package adaptive

import (
	"math"
	"math/rand"

	"adaptive-quiz-service/internal/domain"
)

// MinTrainingSamples is the minimum number of data points before training is
// worthwhile; below it the estimator uses the neutral prior instead.
const MinTrainingSamples = 3

// TrainConfig holds the model hyperparameters.
type TrainConfig struct {
	Epochs       int
	LearningRate float64
	Dropout      float64
}

// DefaultTrainConfig mirrors the reference design: 50 epochs, lr 0.001,
// 20% dropout on both hidden layers.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{Epochs: 50, LearningRate: 0.001, Dropout: 0.2}
}

const (
	hidden1 = 16
	hidden2 = 8
)

// Model is a small feed-forward regressor (8-16-8-1, ReLU hidden layers,
// sigmoid output) mapping a feature vector to a proficiency in [0,1].
// The exported fields make snapshots JSON-serializable for model stores.
type Model struct {
	W1 [][]float64 `json:"w1"`
	B1 []float64   `json:"b1"`
	W2 [][]float64 `json:"w2"`
	B2 []float64   `json:"b2"`
	W3 []float64   `json:"w3"`
	B3 float64     `json:"b3"`
}

// NewModel initializes weights from rnd so tests can be deterministic.
func NewModel(rnd *rand.Rand) *Model {
	m := &Model{
		W1: randomMatrix(rnd, hidden1, domain.FeatureCount),
		B1: make([]float64, hidden1),
		W2: randomMatrix(rnd, hidden2, hidden1),
		B2: make([]float64, hidden2),
		W3: randomVector(rnd, hidden2),
	}
	return m
}

func randomMatrix(rnd *rand.Rand, rows, cols int) [][]float64 {
	scale := math.Sqrt(2.0 / float64(cols))
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = rnd.NormFloat64() * scale
		}
	}
	return m
}

func randomVector(rnd *rand.Rand, n int) []float64 {
	scale := math.Sqrt(2.0 / float64(n))
	v := make([]float64, n)
	for i := range v {
		v[i] = rnd.NormFloat64() * scale
	}
	return v
}

// Predict runs a forward pass without dropout.
func (m *Model) Predict(features domain.FeatureVector) float64 {
	a1 := make([]float64, hidden1)
	for i := range a1 {
		a1[i] = relu(dot(m.W1[i], features[:]) + m.B1[i])
	}
	a2 := make([]float64, hidden2)
	for i := range a2 {
		a2[i] = relu(dot(m.W2[i], a1) + m.B2[i])
	}
	return sigmoid(dot(m.W3, a2) + m.B3)
}

// Train fits the model against observed scores by per-sample gradient
// descent on squared error, with inverted dropout on the hidden layers.
// Training on fewer than MinTrainingSamples points is skipped.
func (m *Model) Train(points []domain.ProficiencyDataPoint, cfg TrainConfig, rnd *rand.Rand) bool {
	if len(points) < MinTrainingSamples {
		return false
	}
	if cfg.Epochs <= 0 {
		cfg = DefaultTrainConfig()
	}
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, idx := range order {
			m.step(points[idx].Features, clamp01(points[idx].Score), cfg, rnd)
		}
	}
	return true
}

func (m *Model) step(features domain.FeatureVector, target float64, cfg TrainConfig, rnd *rand.Rand) {
	x := features[:]

	// Forward pass, keeping pre-activations and dropout masks.
	z1 := make([]float64, hidden1)
	a1 := make([]float64, hidden1)
	keep1 := make([]float64, hidden1)
	for i := range z1 {
		z1[i] = dot(m.W1[i], x) + m.B1[i]
		a1[i] = relu(z1[i])
		keep1[i] = dropoutMask(rnd, cfg.Dropout)
		a1[i] *= keep1[i]
	}
	z2 := make([]float64, hidden2)
	a2 := make([]float64, hidden2)
	keep2 := make([]float64, hidden2)
	for i := range z2 {
		z2[i] = dot(m.W2[i], a1) + m.B2[i]
		a2[i] = relu(z2[i])
		keep2[i] = dropoutMask(rnd, cfg.Dropout)
		a2[i] *= keep2[i]
	}
	y := sigmoid(dot(m.W3, a2) + m.B3)

	// Backward pass for squared error.
	dz3 := 2 * (y - target) * y * (1 - y)

	dz2 := make([]float64, hidden2)
	for i := range dz2 {
		if z2[i] > 0 {
			dz2[i] = dz3 * m.W3[i] * keep2[i]
		}
	}
	dz1 := make([]float64, hidden1)
	for i := range dz1 {
		if z1[i] <= 0 {
			continue
		}
		var sum float64
		for j := range dz2 {
			sum += dz2[j] * m.W2[j][i]
		}
		dz1[i] = sum * keep1[i]
	}

	lr := cfg.LearningRate
	for i := range m.W3 {
		m.W3[i] -= lr * dz3 * a2[i]
	}
	m.B3 -= lr * dz3
	for i := range m.W2 {
		for j := range m.W2[i] {
			m.W2[i][j] -= lr * dz2[i] * a1[j]
		}
		m.B2[i] -= lr * dz2[i]
	}
	for i := range m.W1 {
		for j := range m.W1[i] {
			m.W1[i][j] -= lr * dz1[i] * x[j]
		}
		m.B1[i] -= lr * dz1[i]
	}
}

// dropoutMask returns the inverted-dropout multiplier for one unit.
func dropoutMask(rnd *rand.Rand, p float64) float64 {
	if p <= 0 {
		return 1
	}
	if rnd.Float64() < p {
		return 0
	}
	return 1 / (1 - p)
}

func dot(w, x []float64) float64 {
	var sum float64
	for i := range w {
		sum += w[i] * x[i]
	}
	return sum
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
