package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for mKV servers",
		Long:    "Runs a fixed set of benchmarks (put, put-large, get, get-miss, delete, mget, batch, slice, mixed) against the --db database",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// benchmark is one perf test.
// op is called with a key of the test's key set and a per-goroutine counter.
type benchmark struct {
	name    string
	prefill bool // write every key before the test starts
	op      func(key []byte, counter int) error
}

func benchmarks() []benchmark {
	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	value := []byte("test")

	return []benchmark{
		{name: "put", op: func(k []byte, _ int) error {
			return rpcClient.Put(k, value)
		}},
		{name: "put-large", op: func(k []byte, _ int) error {
			return rpcClient.Put(k, largeValue)
		}},
		{name: "get", prefill: true, op: func(k []byte, _ int) error {
			_, err := rpcClient.Get(k)
			return err
		}},
		{name: "get-miss", op: func(_ []byte, counter int) error {
			// a miss is the expected outcome
			_, err := rpcClient.Get([]byte(fmt.Sprintf("%s/get-miss-%d", perfKeyPrefix, counter%100)))
			if client.IsKind(err, common.KindKeyNotFound) {
				return nil
			}
			return err
		}},
		{name: "delete", prefill: true, op: func(k []byte, _ int) error {
			return rpcClient.Delete(k)
		}},
		{name: "mget", prefill: true, op: func(k []byte, _ int) error {
			_, _, err := rpcClient.MGet([][]byte{k, k, k, k})
			return err
		}},
		{name: "batch", op: func(k []byte, _ int) error {
			return rpcClient.Batch(
				common.PutEntry(k, value),
				common.PutEntry(append(k, '+'), value),
				common.DeleteEntry(append(k, '+')),
			)
		}},
		{name: "slice", prefill: true, op: func(k []byte, _ int) error {
			_, err := rpcClient.Slice(k, 10)
			return err
		}},
		{name: "mixed", prefill: true, op: func(k []byte, counter int) error {
			var err error
			switch counter % 4 {
			case 0:
				err = rpcClient.Put(k, value)
			case 1:
				_, err = rpcClient.Get(k)
			case 2:
				_, err = rpcClient.Slice(k, 5)
			case 3:
				_, _, err = rpcClient.MGet([][]byte{k})
			}
			return err
		}},
	}
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for mKV servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Database: %s (%s)\n", rpcClient.Database(), rpcClient.UID())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	for _, bm := range benchmarks() {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bm.name) {
				return
			}

			// prepare keys
			getKey, iter := getKeys(bm.name)

			if bm.prefill {
				iter(func(k []byte) {
					if err := rpcClient.Put(k, []byte("test")); err != nil {
						log.Printf("(%s) - error setting key: %v\n", bm.name, err)
					}
				})
			}

			// cleanup
			b.Cleanup(func() {
				iter(func(k []byte) {
					if err := rpcClient.Delete(k); err != nil {
						log.Printf("(%s) - error deleting key: %v\n", bm.name, err)
					}
				})
			})

			b.SetParallelism(perfNumThreads)

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					if err := bm.op(getKey(counter), counter); err != nil {
						log.Printf("(%s) - error: %v\n", bm.name, err)
					}
					counter++
				}
			})
		})

		results[bm.name] = result
		printResult(bm.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) []byte, func(func([]byte))) {
	keys := make([][]byte, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = []byte(fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i))
	}

	// Function to get a key by index (with wraparound), callers may append to it
	getKey := func(i int) []byte {
		return slices.Clip(keys[i%perfKeySpread])
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func([]byte)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Database", "Serializer", "Transport", "Compression",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results in a stable order
	tests := make([]string, 0, len(results))
	for test := range results {
		tests = append(tests, test)
	}
	slices.Sort(tests)

	for _, test := range tests {
		result := results[test]
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			rpcClient.Database(),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.FormatBool(viper.GetBool("compression")),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
