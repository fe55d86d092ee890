// Command ohopus converts an MP3 library to Opus. The convert command runs
// a batch; queue, status, config, and deps commands support inspection and
// setup.
package main
