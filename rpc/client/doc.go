// Package client implements the client side of the remote file service.
// It provides the transfer engine used by the CLI and a load harness that
// drives many transfers in parallel.
//
// The package focuses on:
//   - One fresh connection per operation with a configurable deadline
//   - Conversion of every failure (connect, timeout, decode, server ERROR) into a
//     negative result instead of an error crossing the package boundary
//   - Throughput measurement for concurrent uploads and downloads
//
// Key Components:
//
//   - FileClient: RemoteList, RemoteGet, RemoteUpload, RemoteUploadAs and
//     RemoteDelete. Downloads are written to the work directory under the name
//     reported by the server, uploads read the whole local file before sending.
//
//   - TransferResult: success flag, elapsed time, byte count and blake3 digest of
//     one transfer. Failed transfers report zero time and zero bytes.
//
//   - RunStress: runs one transfer per simulated user on a bounded goroutine
//     pool and reports successes, failures, latency percentiles and throughput
//     (bytes of all successful transfers divided by the wall clock time).
//
// Usage Example:
//
//	config := common.DefaultClientConfig()
//	config.Transport.Endpoint = "localhost:6667"
//
//	c, err := client.NewFileClient(config, tcp.NewTCPClientTransport(), serializer.NewTextSerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//
//	if res := c.RemoteUpload("test_1mb.dat"); res.Ok {
//	  fmt.Printf("uploaded %d bytes in %s\n", res.Bytes, res.Elapsed)
//	}
//
//	report, _ := client.RunStress(c, client.StressConfig{
//	  Operation: client.OperationDownload,
//	  File:      "test_1mb.dat",
//	  Workers:   5,
//	})
//	fmt.Printf("%.2f MB/s\n", report.Throughput/1024/1024)
//
// Thread Safety:
//
//	A FileClient can be used concurrently from multiple goroutines without
//	additional synchronization. Concurrent downloads of the same name write to
//	the same local file.
package client
