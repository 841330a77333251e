package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"selective-backprop/internal/model"
	"selective-backprop/internal/trainer"
)

func main() {
	batchSize := getenvInt("BATCH_SIZE", 32)
	epochLength := getenvInt("EPOCH_LENGTH", 100)
	epochs := getenvInt("EPOCHS", 10)
	threshold := getenvFloat("LOSS_THRESHOLD", 0)
	learningRate := getenvFloat("LEARNING_RATE", 0.1)
	inputDim := getenvInt("INPUT_DIM", 16)
	seed := getenvInt64("SEED", time.Now().UnixNano())
	statsPort := getenv("STATS_PORT", "")

	rng := rand.New(rand.NewSource(seed))

	clf, err := model.NewLinear(inputDim, 2, rng)
	if err != nil {
		log.Fatal(err)
	}
	sgd, err := model.NewSGD(clf, learningRate)
	if err != nil {
		log.Fatal(err)
	}
	sb, err := trainer.New(trainer.Config{
		BatchSize:     batchSize,
		EpochLength:   epochLength,
		LossThreshold: threshold,
	}, clf, clf.CrossEntropy, sgd, rng)
	if err != nil {
		log.Fatal(err)
	}

	st := &stats{}
	if statsPort != "" {
		go serveStats(statsPort, st)
	}

	for epoch := 1; epoch <= epochs; epoch++ {
		var updates int
		var lastMean float64

		for b := 0; b < epochLength; b++ {
			inputs, targets := gaussianBatch(batchSize, inputDim, rng)
			predictions, err := clf.Forward(inputs)
			if err != nil {
				log.Fatal(err)
			}
			losses, err := clf.CrossEntropy(predictions, targets)
			if err != nil {
				log.Fatal(err)
			}

			mean, fired, err := sb.Process(losses, inputs, targets)
			if err != nil {
				log.Fatal(err)
			}
			if fired {
				updates++
				lastMean = mean
			}
			st.observe(batchSize, fired, mean, sb.Pending(), sb.HistorySize())
		}

		log.Printf("epoch %d: %d updates, last mini-batch loss %.4f, %d examples pending",
			epoch, updates, lastMean, sb.Pending())
	}
}

// gaussianBatch draws a batch from a two-class Gaussian mixture: every
// feature of class k is shifted by +/-1, so the classes overlap and the
// per-example losses spread out.
func gaussianBatch(n, dim int, rng *rand.Rand) (inputs, targets *mat.Dense) {
	inputs = mat.NewDense(n, dim, nil)
	targets = mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		class := rng.Intn(2)
		shift := 2.0*float64(class) - 1.0
		for j := 0; j < dim; j++ {
			inputs.Set(i, j, rng.NormFloat64()+shift)
		}
		targets.Set(i, class, 1)
	}
	return inputs, targets
}

type stats struct {
	mu           sync.Mutex
	batches      int
	examples     int
	fires        int
	pending      int
	historySize  int
	lastMeanLoss float64
}

func (s *stats) observe(batchSize int, fired bool, meanLoss float64, pending, historySize int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches++
	s.examples += batchSize
	s.pending = pending
	s.historySize = historySize
	if fired {
		s.fires++
		s.lastMeanLoss = meanLoss
	}
}

func serveStats(port string, st *stats) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		st.mu.Lock()
		payload := map[string]any{
			"batches":        st.batches,
			"examples":       st.examples,
			"fires":          st.fires,
			"pending":        st.pending,
			"history_size":   st.historySize,
			"last_mean_loss": st.lastMeanLoss,
		}
		st.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	})

	log.Printf("stats listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("stats server stopped: %v", err)
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
