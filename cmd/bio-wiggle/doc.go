/*
bio-wiggle indexes, sorts, transforms, merges, compares and plots wiggle
tracks.

Usage:
  bio-wiggle index track.wig
  bio-wiggle sort -output sorted.wig track.wig
  bio-wiggle scale -factor 0.5 track.wig
  bio-wiggle fill -genome hg19.bed -filler 0 -only-edges track.wig
  bio-wiggle derivative -method central track.wig
  bio-wiggle coverage -threshold 10 -output covered.bed track.wig
  bio-wiggle merge -merger mean -output merged.wig a.wig b.wig c.wig
  bio-wiggle distance -metric b a.wig b.wig c.wig
  bio-wiggle plot -regions chr1,chrM -format svg -output-dir plots a.wig

A track argument of "-" reads from stdin; such tracks can not be indexed, so
sort, merge and distance need named tracks. Output tracks go to stdout
unless -output is given. An output file is removed if the command fails, and
uncompressed output tracks get an index file written next to them.
*/
package main
