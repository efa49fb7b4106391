package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dreamware/solvernet/internal/cluster"
)

func newSolveCmd() *cobra.Command {
	var (
		balancerURL string
		size        int
		file        string
		seed        uint64
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Send a linear system to the balancer and print the solution",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var matrix [][]float64
			if file != "" {
				m, err := readMatrixFile(file)
				if err != nil {
					return err
				}
				matrix = m
			} else {
				if size < 1 {
					return fmt.Errorf("size must be at least 1, got %d", size)
				}
				rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
				if !cmd.Flags().Changed("seed") {
					rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
				}
				matrix = randomMatrix(size, rng)
			}
			return solve(cmd, balancerURL, matrix)
		},
	}
	cmd.Flags().StringVarP(&balancerURL, "balancer", "b", "http://localhost:3000", "balancer base URL")
	cmd.Flags().IntVarP(&size, "size", "n", 5, "number of unknowns of the generated system")
	cmd.Flags().StringVarP(&file, "file", "f", "", `JSON file holding {"matrix": [[...], ...]}`)
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for the generated system")
	return cmd
}

func solve(cmd *cobra.Command, balancerURL string, matrix [][]float64) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Matrix:")
	writeMatrix(out, matrix)

	var resp cluster.SolveResponse
	err := cluster.PostJSON(cmd.Context(), strings.TrimRight(balancerURL, "/")+"/solve", cluster.SolveRequest{Matrix: matrix}, &resp)
	if err != nil {
		var herr *cluster.HTTPError
		if errors.As(err, &herr) && herr.Message != "" {
			return fmt.Errorf("balancer answered %d: %s", herr.StatusCode, herr.Message)
		}
		return fmt.Errorf("request solution: %w", err)
	}

	fmt.Fprintln(out, "Solution:")
	fmt.Fprintln(out, formatRow(resp.Solution))
	return nil
}

// randomMatrix returns an n×(n+1) augmented matrix with entries in [0, 10)
// rounded to three decimals.
func randomMatrix(n int, rng *rand.Rand) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n+1)
		for j := range m[i] {
			m[i][j] = math.Round(rng.Float64()*10*1000) / 1000
		}
	}
	return m
}

// readMatrixFile loads {"matrix": ...} from path.
func readMatrixFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var req cluster.SolveRequest
	if err := json.NewDecoder(f).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(req.Matrix) == 0 {
		return nil, fmt.Errorf("%s: no matrix", path)
	}
	return req.Matrix, nil
}

func formatRow(row []float64) string {
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strings.Join(cells, " | ")
}

func writeMatrix(w io.Writer, m [][]float64) {
	for _, row := range m {
		fmt.Fprintln(w, formatRow(row))
	}
}
