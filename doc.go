// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

/*
The sauvola package contains tools and functions for binarizing scanned
book pages with Sauvola's adaptive thresholding algorithm, both one image
at a time and for whole books kept in local or cloud storage.

The algorithm itself lives in the preproc package, with the integral
images that make it fast for large windows in the integralimg package.
This package contains the supporting pieces used by the commands: storage
connections, a chart comparing the speed of the direct and integral
image methods, and assembly of binarized pages into a PDF.

Binarizing images

The sauvola command binarizes a single image, reading PGM, PPM, PNG,
JPEG, TIFF and BMP files, and writing the result in the format given
by the output file extension:
  sauvola -k 0.3 -r 20 page.jpg page_bin.png

Several values of k can be tried at once with preprocmulti, which saves
one image per value, named like page_bin0.3.png:
  preprocmulti -bt binary -k 0.1,0.3,0.5 page.png

Speed

The direct method calculates the mean and standard deviation of every
window from scratch, so slows down with the square of the window radius.
The integral method uses summed area tables, taking the same time for
any radius. Both give exactly the same result. The sauvolabench command
times both over a range of radiuses and draws a chart of the results:
  sauvolabench -o timings.png page.png

Books

The binarizebook command uploads a directory of page images to storage,
binarizes every page with each of a set of k values, uploads the results,
and can then download them and put them together as a PDF:
  binarizebook -c local -pdf book.pdf MyBook/

By default storage is a directory in the system temporary directory, but
with '-c aws' pages are kept in an S3 bucket, named in settings.go. Set up
~/.aws/credentials appropriately to use it.

Configuration

All of the commands read defaults from ~/.config/sauvola/config.toml if it
exists, which looks like this:
  [sauvola]
  k = 0.5
  radius = 13
  method = "integral"

  [wipe]
  enabled = true
  wsize = 5
  thresh = 0.05

  [storage]
  backend = "local"

  [multi]
  ksizes = [0.1, 0.2, 0.4, 0.5]

Any flags given on the command line override the config file.
*/
package sauvola
