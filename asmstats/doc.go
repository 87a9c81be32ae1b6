// Package asmstats computes assembly statistics over sequence files: total
// length, sequence count, GC and N content, contig extremes and
// N25/N50/N75.
//
// AnalyzeFile handles one file, producing one Result per sequence stream it
// holds (a single one, except for zip containers).  Run and Stream analyze
// many files on a bounded worker pool; a failure in one file is reported as
// a FileError for that file and does not affect the others.
package asmstats
